// Package validation 基于 go-playground/validator 的结构体校验，注册业务自定义规则。
//
// 自定义标签：
//   - username: 仅允许字母、数字及 . @ + - _
//   - notme:    拒绝保留用户名 "me"（忽略大小写）
//   - slug:     URL 安全的短标识
//   - pastyear: 年份不晚于服务器当前年份
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/user/yamdb/internal/apperr"
)

// ReservedUsername 保留用户名，对应 /users/me
const ReservedUsername = "me"

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	validate     *validator.Validate
	validateOnce sync.Once

	// now 便于测试替换
	now = time.Now
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// 错误信息中使用 JSON 字段名
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("notme", func(fl validator.FieldLevel) bool {
			return !IsReservedUsername(fl.Field().String())
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("pastyear", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(now().Year())
		})
	})
	return validate
}

// NormalizeEmail 邮箱统一小写去空白；注册、确认码和资料修改共用
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsReservedUsername 是否为保留用户名
func IsReservedUsername(username string) bool {
	return strings.EqualFold(username, ReservedUsername)
}

// Struct 校验结构体，失败返回首个字段的 InvalidField 错误
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.InvalidField("", err.Error())
	}

	fe := verrs[0]
	return apperr.InvalidField(fe.Field(), message(fe))
}

// Var 校验单个值
func Var(field string, value any, tag string) error {
	err := instance().Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.InvalidField(field, message(verrs[0]))
	}
	return apperr.InvalidField(field, err.Error())
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "min":
		return "ensure this value is at least " + fe.Param()
	case "gte":
		return "ensure this value is greater than or equal to " + fe.Param()
	case "lte":
		return "ensure this value is less than or equal to " + fe.Param()
	case "oneof":
		return "value must be one of: " + fe.Param()
	case "username":
		return "username may contain only letters, digits and @/./+/-/_ characters"
	case "notme":
		return "username \"me\" is reserved"
	case "slug":
		return "slug may contain only latin letters, digits, hyphens and underscores"
	case "pastyear":
		return "year cannot be in the future"
	default:
		return "invalid value"
	}
}
