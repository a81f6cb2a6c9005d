// Package apperr 定义业务错误分类及其 HTTP 状态映射。
//
// 服务层返回 *Error，处理器按 Kind 输出响应：
//
//	if errors.Is(err, apperr.ErrNotFound) { ... }
//
//	var e *apperr.Error
//	if errors.As(err, &e) {
//	    c.JSON(e.HTTPStatus(), ...)
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
type Kind string

const (
	KindInvalidField      Kind = "invalid_field"
	KindInvalidCredential Kind = "invalid_credential"
	KindUnauthenticated   Kind = "unauthenticated"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindDeliveryFailure   Kind = "delivery_failure"
	KindInternal          Kind = "internal"
)

// HTTPStatus 错误类别对应的状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidField, KindInvalidCredential:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDeliveryFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 同类别即视为相同错误
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// HTTPStatus 状态码
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// 用于 errors.Is 比较的哨兵错误
var (
	ErrInvalidField      = &Error{Kind: KindInvalidField, Message: "invalid field"}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "invalid credential"}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "permission denied"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrDeliveryFailure   = &Error{Kind: KindDeliveryFailure, Message: "delivery failure"}
	ErrInternal          = &Error{Kind: KindInternal, Message: "internal error"}
)

// InvalidField 字段校验失败
func InvalidField(field, message string) *Error {
	return &Error{Kind: KindInvalidField, Field: field, Message: message}
}

// InvalidCredential 凭证（确认码）错误
func InvalidCredential(message string) *Error {
	return &Error{Kind: KindInvalidCredential, Field: "confirmation_code", Message: message}
}

// Unauthenticated 未认证
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden 已认证但权限不足
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound 资源不存在或不可经此路径访问
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict 唯一性冲突
func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

// DeliveryFailure 邮件发送失败
func DeliveryFailure(cause error) *Error {
	return &Error{Kind: KindDeliveryFailure, Message: "failed to deliver confirmation code", cause: cause}
}

// Internal 包装未预期的底层错误
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// KindOf 取错误类别，非业务错误视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
