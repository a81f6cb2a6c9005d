package service

import (
	"context"
	"errors"

	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/validation"
)

// ReviewInput 创建评论；作者和作品只取自当前用户和路径
type ReviewInput struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"required,gte=1,lte=10"`
}

// ReviewPatch 部分更新评论
type ReviewPatch struct {
	Text  *string `json:"text" validate:"omitnil,min=1"`
	Score *int    `json:"score" validate:"omitnil,gte=1,lte=10"`
}

// CommentInput 创建/更新回复
type CommentInput struct {
	Text string `json:"text" validate:"required"`
}

// ErrAlreadyReviewed 同一用户重复评论同一作品
var ErrAlreadyReviewed = apperr.Conflict("title", "you have already reviewed this title")

// ContentService 作品 → 评论 → 回复 的嵌套资源
type ContentService struct {
	titles   TitleStore
	reviews  ReviewStore
	comments CommentStore
}

// NewContentService 创建嵌套资源服务
func NewContentService(titles TitleStore, reviews ReviewStore, comments CommentStore) *ContentService {
	return &ContentService{titles: titles, reviews: reviews, comments: comments}
}

// ==================== 路径解析 ====================

// ResolveTitle 作品必须存在
func (s *ContentService) ResolveTitle(ctx context.Context, titleID int) error {
	ok, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !ok {
		return apperr.NotFound("title not found")
	}
	return nil
}

// ResolveReview 评论必须属于路径中的作品，否则按不存在处理
func (s *ContentService) ResolveReview(ctx context.Context, titleID, reviewID int) (*model.Review, error) {
	if err := s.ResolveTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviews.FindInTitle(ctx, titleID, reviewID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if review == nil {
		return nil, apperr.NotFound("review not found")
	}
	return review, nil
}

// ResolveComment 回复必须属于路径中的评论，评论必须属于路径中的作品
func (s *ContentService) ResolveComment(ctx context.Context, titleID, reviewID, commentID int) (*model.Comment, error) {
	if _, err := s.ResolveReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.FindInReview(ctx, reviewID, commentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if comment == nil {
		return nil, apperr.NotFound("comment not found")
	}
	return comment, nil
}

// ==================== 评论 ====================

// ListReviews 作品下的评论列表
func (s *ContentService) ListReviews(ctx context.Context, p *model.Principal, titleID int, pq PageQuery) ([]*model.Review, int64, error) {
	if err := policy.CheckCollection(p, policy.Review, policy.List); err != nil {
		return nil, 0, err
	}
	if err := s.ResolveTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	items, total, err := s.reviews.ListByTitle(ctx, titleID, pq.toRepo())
	return wrapList(items, total, err)
}

// GetReview 单条评论
func (s *ContentService) GetReview(ctx context.Context, p *model.Principal, titleID, reviewID int) (*model.Review, error) {
	if err := policy.CheckCollection(p, policy.Review, policy.Retrieve); err != nil {
		return nil, err
	}
	return s.ResolveReview(ctx, titleID, reviewID)
}

// CreateReview 发表评论。先做唯一性预检以给出明确错误，
// 并发插入的失败方由数据库唯一约束兜底，同样返回 Conflict。
func (s *ContentService) CreateReview(ctx context.Context, p *model.Principal, titleID int, in ReviewInput) (*model.Review, error) {
	if err := policy.CheckCollection(p, policy.Review, policy.Create); err != nil {
		return nil, err
	}
	if err := s.ResolveTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByAuthor(ctx, titleID, p.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	review := &model.Review{
		TitleID:  titleID,
		AuthorID: p.ID,
		Text:     in.Text,
		Score:    in.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, apperr.Internal(err)
	}
	review.Author = &model.User{ID: p.ID, Username: p.Username}
	return review, nil
}

// UpdateReview 修改评论（作者、版主、管理员）
func (s *ContentService) UpdateReview(ctx context.Context, p *model.Principal, titleID, reviewID int, in ReviewPatch) (*model.Review, error) {
	if err := policy.CheckCollection(p, policy.Review, policy.Update); err != nil {
		return nil, err
	}
	review, err := s.ResolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckObject(p, policy.Review, policy.Update, review.AuthorID); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Text != nil {
		fields["text"] = *in.Text
		review.Text = *in.Text
	}
	if in.Score != nil {
		fields["score"] = *in.Score
		review.Score = *in.Score
	}
	if err := s.reviews.Update(ctx, review, fields); err != nil {
		return nil, apperr.Internal(err)
	}
	return review, nil
}

// DeleteReview 删除评论（作者、版主、管理员）
func (s *ContentService) DeleteReview(ctx context.Context, p *model.Principal, titleID, reviewID int) error {
	if err := policy.CheckCollection(p, policy.Review, policy.Delete); err != nil {
		return err
	}
	review, err := s.ResolveReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := policy.CheckObject(p, policy.Review, policy.Delete, review.AuthorID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ==================== 回复 ====================

// ListComments 评论下的回复列表
func (s *ContentService) ListComments(ctx context.Context, p *model.Principal, titleID, reviewID int, pq PageQuery) ([]*model.Comment, int64, error) {
	if err := policy.CheckCollection(p, policy.Comment, policy.List); err != nil {
		return nil, 0, err
	}
	if _, err := s.ResolveReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	items, total, err := s.comments.ListByReview(ctx, reviewID, pq.toRepo())
	return wrapList(items, total, err)
}

// GetComment 单条回复
func (s *ContentService) GetComment(ctx context.Context, p *model.Principal, titleID, reviewID, commentID int) (*model.Comment, error) {
	if err := policy.CheckCollection(p, policy.Comment, policy.Retrieve); err != nil {
		return nil, err
	}
	return s.ResolveComment(ctx, titleID, reviewID, commentID)
}

// CreateComment 发表回复
func (s *ContentService) CreateComment(ctx context.Context, p *model.Principal, titleID, reviewID int, in CommentInput) (*model.Comment, error) {
	if err := policy.CheckCollection(p, policy.Comment, policy.Create); err != nil {
		return nil, err
	}
	review, err := s.ResolveReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ReviewID: review.ID,
		AuthorID: p.ID,
		Text:     in.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperr.Internal(err)
	}
	comment.Author = &model.User{ID: p.ID, Username: p.Username}
	return comment, nil
}

// UpdateComment 修改回复（作者、版主、管理员）
func (s *ContentService) UpdateComment(ctx context.Context, p *model.Principal, titleID, reviewID, commentID int, in CommentInput) (*model.Comment, error) {
	if err := policy.CheckCollection(p, policy.Comment, policy.Update); err != nil {
		return nil, err
	}
	comment, err := s.ResolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckObject(p, policy.Comment, policy.Update, comment.AuthorID); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	comment.Text = in.Text
	if err := s.comments.Update(ctx, comment, map[string]interface{}{"text": in.Text}); err != nil {
		return nil, apperr.Internal(err)
	}
	return comment, nil
}

// DeleteComment 删除回复（作者、版主、管理员）
func (s *ContentService) DeleteComment(ctx context.Context, p *model.Principal, titleID, reviewID, commentID int) error {
	if err := policy.CheckCollection(p, policy.Comment, policy.Delete); err != nil {
		return err
	}
	comment, err := s.ResolveComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := policy.CheckObject(p, policy.Comment, policy.Delete, comment.AuthorID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
