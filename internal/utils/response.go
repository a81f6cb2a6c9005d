package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/logging"
)

// ErrorResponse 统一错误响应结构
type ErrorResponse struct {
	Code    int         `json:"code"`            // HTTP 状态码
	Error   apperr.Kind `json:"error"`           // 错误类别
	Message string      `json:"message"`         // 消息
	Field   string      `json:"field,omitempty"` // 出错字段
	Success bool        `json:"success"`         // 恒为 false
}

// PageResponse 分页响应
type PageResponse[T any] struct {
	Count    int64 `json:"count"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

// NewPageResponse 根据页码和总数构造分页响应
func NewPageResponse[T any](results []T, count int64, page, pageSize int) PageResponse[T] {
	resp := PageResponse[T]{Count: count, Results: results}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if page > 1 {
		prev := page - 1
		resp.Previous = &prev
	}
	if pageSize > 0 && int64(page) < (count+int64(pageSize)-1)/int64(pageSize) {
		next := page + 1
		resp.Next = &next
	}
	return resp
}

// Success 返回 200 及资源
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 返回 201 及新建资源
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent 返回 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 返回错误响应
func Error(c *gin.Context, code int, kind apperr.Kind, field, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{
		Code:    code,
		Error:   kind,
		Message: message,
		Field:   field,
		Success: false,
	})
}

// BadRequest 返回400错误
func BadRequest(c *gin.Context, field, message string) {
	Error(c, http.StatusBadRequest, apperr.KindInvalidField, field, message)
}

// Fail 将业务错误映射为响应，非业务错误记日志并返回 500
func Fail(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Internal(err)
	}

	if e.Kind == apperr.KindInternal {
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("请求处理失败")
		Error(c, http.StatusInternalServerError, e.Kind, "", "服务器内部错误")
		return
	}

	Error(c, e.HTTPStatus(), e.Kind, e.Field, e.Message)
}
