package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// ==================== 评论 ====================

// ListReviews GET /titles/:title_id/reviews
func (h *Handler) ListReviews(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	pq, ok := pageQuery(c)
	if !ok {
		return
	}
	items, total, err := h.Content.ListReviews(c.Request.Context(), middleware.GetPrincipal(c), titleID, pq)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	page(c, mapSlice(items, newReviewResponse), total, pq)
}

// GetReview GET /titles/:title_id/reviews/:review_id
func (h *Handler) GetReview(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	review, err := h.Content.GetReview(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, newReviewResponse(review))
}

// CreateReview POST /titles/:title_id/reviews
func (h *Handler) CreateReview(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	review, err := h.Content.CreateReview(c.Request.Context(), middleware.GetPrincipal(c), titleID, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, newReviewResponse(review))
}

// UpdateReview PATCH /titles/:title_id/reviews/:review_id
func (h *Handler) UpdateReview(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var in service.ReviewPatch
	if !bindJSON(c, &in) {
		return
	}
	review, err := h.Content.UpdateReview(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, newReviewResponse(review))
}

// DeleteReview DELETE /titles/:title_id/reviews/:review_id
func (h *Handler) DeleteReview(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	if err := h.Content.DeleteReview(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.NoContent(c)
}

// ==================== 回复 ====================

// ListComments GET /titles/:title_id/reviews/:review_id/comments
func (h *Handler) ListComments(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	pq, ok := pageQuery(c)
	if !ok {
		return
	}
	items, total, err := h.Content.ListComments(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, pq)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	page(c, mapSlice(items, newCommentResponse), total, pq)
}

// GetComment GET .../comments/:comment_id
func (h *Handler) GetComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	comment, err := h.Content.GetComment(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, commentID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, newCommentResponse(comment))
}

// CreateComment POST .../comments
func (h *Handler) CreateComment(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.Content.CreateComment(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, newCommentResponse(comment))
}

// UpdateComment PATCH .../comments/:comment_id
func (h *Handler) UpdateComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.Content.UpdateComment(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, commentID, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, newCommentResponse(comment))
}

// DeleteComment DELETE .../comments/:comment_id
func (h *Handler) DeleteComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	if err := h.Content.DeleteComment(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, commentID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.NoContent(c)
}

func reviewPath(c *gin.Context) (titleID, reviewID int, ok bool) {
	if titleID, ok = pathID(c, "title_id"); !ok {
		return
	}
	reviewID, ok = pathID(c, "review_id")
	return
}

func commentPath(c *gin.Context) (titleID, reviewID, commentID int, ok bool) {
	if titleID, reviewID, ok = reviewPath(c); !ok {
		return
	}
	commentID, ok = pathID(c, "comment_id")
	return
}
