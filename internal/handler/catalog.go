package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// ==================== 分类 ====================

// ListCategories GET /categories
func (h *Handler) ListCategories(c *gin.Context) {
	pq, ok := pageQuery(c)
	if !ok {
		return
	}
	items, total, err := h.Catalog.ListCategories(c.Request.Context(), middleware.GetPrincipal(c), c.Query("search"), pq)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	page(c, items, total, pq)
}

// CreateCategory POST /categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var in service.TagInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, category)
}

// DeleteCategory DELETE /categories/:slug
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.Catalog.DeleteCategory(c.Request.Context(), middleware.GetPrincipal(c), c.Param("slug")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.NoContent(c)
}

// ==================== 类型 ====================

// ListGenres GET /genres
func (h *Handler) ListGenres(c *gin.Context) {
	pq, ok := pageQuery(c)
	if !ok {
		return
	}
	items, total, err := h.Catalog.ListGenres(c.Request.Context(), middleware.GetPrincipal(c), c.Query("search"), pq)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	page(c, items, total, pq)
}

// CreateGenre POST /genres
func (h *Handler) CreateGenre(c *gin.Context) {
	var in service.TagInput
	if !bindJSON(c, &in) {
		return
	}
	genre, err := h.Catalog.CreateGenre(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, genre)
}

// DeleteGenre DELETE /genres/:slug
func (h *Handler) DeleteGenre(c *gin.Context) {
	if err := h.Catalog.DeleteGenre(c.Request.Context(), middleware.GetPrincipal(c), c.Param("slug")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.NoContent(c)
}

// ==================== 作品 ====================

// ListTitles GET /titles?name=&year=&category=&genre=
func (h *Handler) ListTitles(c *gin.Context) {
	var q service.TitleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, "year", "invalid filter parameters")
		return
	}
	q.PageQuery = q.PageQuery.Normalize()

	items, total, err := h.Catalog.ListTitles(c.Request.Context(), middleware.GetPrincipal(c), q)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	page(c, mapSlice(items, newTitleResponse), total, q.PageQuery)
}

// GetTitle GET /titles/:title_id
func (h *Handler) GetTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	title, err := h.Catalog.GetTitle(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, newTitleResponse(title))
}

// CreateTitle POST /titles
func (h *Handler) CreateTitle(c *gin.Context) {
	var in service.TitleInput
	if !bindJSON(c, &in) {
		return
	}
	title, err := h.Catalog.CreateTitle(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, newTitleResponse(title))
}

// UpdateTitle PATCH /titles/:title_id
func (h *Handler) UpdateTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	var in service.TitlePatch
	if !bindJSON(c, &in) {
		return
	}
	title, err := h.Catalog.UpdateTitle(c.Request.Context(), middleware.GetPrincipal(c), id, in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, newTitleResponse(title))
}

// DeleteTitle DELETE /titles/:title_id
func (h *Handler) DeleteTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteTitle(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.NoContent(c)
}
