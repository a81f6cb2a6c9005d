package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// ==================== 管理员 ====================

// ListUsers GET /users?search=
func (h *Handler) ListUsers(c *gin.Context) {
	pq, ok := pageQuery(c)
	if !ok {
		return
	}
	items, total, err := h.Accounts.ListAccounts(c.Request.Context(), middleware.GetPrincipal(c), c.Query("search"), pq)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	page(c, items, total, pq)
}

// CreateUser POST /users
func (h *Handler) CreateUser(c *gin.Context) {
	var in service.AccountInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.Accounts.CreateAccount(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Created(c, user)
}

// GetUser GET /users/:username
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Accounts.GetAccount(c.Request.Context(), middleware.GetPrincipal(c), c.Param("username"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, user)
}

// UpdateUser PATCH /users/:username
func (h *Handler) UpdateUser(c *gin.Context) {
	var in service.AccountPatch
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.Accounts.UpdateAccount(c.Request.Context(), middleware.GetPrincipal(c), c.Param("username"), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, user)
}

// DeleteUser DELETE /users/:username
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Accounts.DeleteAccount(c.Request.Context(), middleware.GetPrincipal(c), c.Param("username")); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.NoContent(c)
}

// ==================== 当前用户 ====================

// Me GET /users/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.Accounts.GetSelf(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, user)
}

// UpdateMe PATCH /users/me，请求中的 role 字段不会被绑定
func (h *Handler) UpdateMe(c *gin.Context) {
	var in service.SelfPatch
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.Accounts.UpdateSelf(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, user)
}
