package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/auth"
	"github.com/user/yamdb/internal/logging"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/utils"
)

const principalKey = "principal"

// TokenParser 解析访问令牌
type TokenParser interface {
	Parse(token string) (*model.Principal, error)
}

// Authenticate 解析访问令牌并把身份放入上下文。
// 没有令牌按匿名继续；令牌无效或过期直接返回 401，是否允许匿名由各接口的鉴权规则决定。
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		p, err := tokens.Parse(tokenString)
		if err != nil {
			msg := "invalid token"
			if auth.IsExpired(err) {
				msg = "token has expired"
			}
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("令牌校验失败")
			utils.Fail(c, apperr.Unauthenticated(msg))
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// extractToken 优先 Authorization: Bearer，其次 Cookie
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// GetPrincipal 从上下文获取当前身份（匿名返回 nil）
func GetPrincipal(c *gin.Context) *model.Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(*model.Principal); ok {
			return p
		}
	}
	return nil
}
