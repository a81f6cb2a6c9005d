package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/logging"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/validation"
)

// UserStore 握手流程需要的用户存储
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// Mailer 发送确认码
type Mailer interface {
	SendConfirmationCode(ctx context.Context, to, username, code string) error
}

// SignupRequest 申请确认码
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150,username,notme"`
}

// TokenRequest 用确认码换取令牌，username 也可填邮箱
type TokenRequest struct {
	Username         string `json:"username" validate:"required,max=254"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// TokenResponse 令牌
type TokenResponse struct {
	Token string `json:"token"`
}

// Service 免密码认证握手
type Service struct {
	users  UserStore
	mailer Mailer
	coder  *Coder
	tokens *Tokens
}

// NewService 创建认证服务
func NewService(users UserStore, mailer Mailer, coder *Coder, tokens *Tokens) *Service {
	return &Service{users: users, mailer: mailer, coder: coder, tokens: tokens}
}

// RequestCode 校验邮箱与用户名，必要时创建账户，并发送确认码。
// 对同一组 (email, username) 重复调用是幂等的：不会重复建号，确认码重新发送。
func (s *Service) RequestCode(ctx context.Context, req SignupRequest) (*SignupRequest, error) {
	req.Email = validation.NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	byName, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if byName != nil && validation.NormalizeEmail(byName.Email) != req.Email {
		return nil, apperr.Conflict("username", "username is already registered with a different email")
	}

	if byName == nil {
		byEmail, err := s.users.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if byEmail != nil {
			return nil, apperr.Conflict("email", "email is already registered with a different username")
		}

		user := &model.User{Username: req.Username, Email: req.Email, Role: model.RoleUser}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, apperr.Conflict("username", "account with this username or email already exists")
			}
			return nil, apperr.Internal(err)
		}
		logging.Ctx(ctx).Info().Str("username", user.Username).Msg("账户已创建")
	}

	code := s.coder.Code(req.Email)
	if err := s.mailer.SendConfirmationCode(ctx, req.Email, req.Username, code); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("email", req.Email).Msg("确认码发送失败")
		return nil, apperr.DeliveryFailure(err)
	}

	return &req, nil
}

// ExchangeToken 校验确认码并签发令牌
func (s *Service) ExchangeToken(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}

	user, err := s.findByLogin(ctx, req.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	if !s.coder.Verify(user.Email, req.ConfirmationCode) {
		return nil, apperr.InvalidCredential("invalid confirmation code")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &TokenResponse{Token: token}, nil
}

// findByLogin 先按用户名查找，找不到再按邮箱
func (s *Service) findByLogin(ctx context.Context, login string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, login)
	if err != nil || user != nil {
		return user, err
	}
	if !strings.Contains(login, "@") {
		return nil, nil
	}
	return s.users.FindByEmail(ctx, validation.NormalizeEmail(login))
}
