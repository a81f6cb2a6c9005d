package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/auth"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Auth     *auth.Service
	Catalog  *service.CatalogService
	Content  *service.ContentService
	Accounts *service.AccountService
}

// NewHandler 创建处理器
func NewHandler(authService *auth.Service, catalog *service.CatalogService, content *service.ContentService, accounts *service.AccountService) *Handler {
	return &Handler{
		Auth:     authService,
		Catalog:  catalog,
		Content:  content,
		Accounts: accounts,
	}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindJSON 解析请求体，失败时已写出 400 响应
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			utils.BadRequest(c, "", "request body is required")
		} else {
			utils.BadRequest(c, "", "malformed JSON: "+err.Error())
		}
		return false
	}
	return true
}

// pathID 解析路径中的数字 ID，非法 ID 视为资源不存在
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.Fail(c, apperr.NotFound("not found"))
		return 0, false
	}
	return id, true
}

// pageQuery 解析分页参数
func pageQuery(c *gin.Context) (service.PageQuery, bool) {
	var pq service.PageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		utils.BadRequest(c, "page", "invalid pagination parameters")
		return pq, false
	}
	return pq.Normalize(), true
}

// page 输出分页响应
func page[T any](c *gin.Context, results []T, total int64, pq service.PageQuery) {
	utils.Success(c, utils.NewPageResponse(results, total, pq.Page, pq.PageSize))
}

func mapSlice[S, T any](in []S, f func(S) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
