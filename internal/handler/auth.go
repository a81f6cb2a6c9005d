package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/auth"
	"github.com/user/yamdb/internal/utils"
)

// Signup 申请确认码：POST /auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req auth.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.Auth.RequestCode(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}

// Token 用确认码换取令牌：POST /auth/token
func (h *Handler) Token(c *gin.Context) {
	var req auth.TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.Auth.ExchangeToken(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}
