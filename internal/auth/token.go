package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/user/yamdb/internal/model"
)

// Claims JWT 声明。角色取签发时的值，之后的角色变更在下次换取令牌时生效。
type Claims struct {
	UserID    int        `json:"user_id"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	Superuser bool       `json:"su,omitempty"`
	jwt.RegisteredClaims
}

// Tokens JWT 签发与解析
type Tokens struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokens 创建令牌管理器
func NewTokens(secret string, expiry time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Generate 为用户签发访问令牌
func (t *Tokens) Generate(user *model.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Superuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse 校验令牌并还原鉴权主体
func (t *Tokens) Parse(tokenString string) (*model.Principal, error) {
	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing identity", jwt.ErrTokenInvalidClaims)
	}

	return &model.Principal{
		ID:        claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		Superuser: claims.Superuser,
	}, nil
}

// IsExpired 令牌是否过期
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
