package service

import (
	"context"
	"errors"
	"strings"

	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/validation"
)

// AccountInput 管理员创建用户
type AccountInput struct {
	Username  string     `json:"username" validate:"required,max=150,username,notme"`
	Email     string     `json:"email" validate:"required,email,max=254"`
	FirstName string     `json:"first_name" validate:"max=150"`
	LastName  string     `json:"last_name" validate:"max=150"`
	Bio       string     `json:"bio"`
	Role      model.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// AccountPatch 管理员部分更新用户，可修改角色
type AccountPatch struct {
	Username  *string     `json:"username" validate:"omitnil,max=150,username,notme"`
	Email     *string     `json:"email" validate:"omitnil,email,max=254"`
	FirstName *string     `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string     `json:"last_name" validate:"omitnil,max=150"`
	Bio       *string     `json:"bio"`
	Role      *model.Role `json:"role" validate:"omitnil,oneof=user moderator admin"`
}

// SelfPatch 用户修改自己的资料。没有 role 字段，请求里的 role 不会被绑定
type SelfPatch struct {
	Username  *string `json:"username" validate:"omitnil,max=150,username,notme"`
	Email     *string `json:"email" validate:"omitnil,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string `json:"last_name" validate:"omitnil,max=150"`
	Bio       *string `json:"bio"`
}

func (p SelfPatch) asAccountPatch() AccountPatch {
	return AccountPatch{
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Bio:       p.Bio,
	}
}

// AccountService 用户管理与自助资料
type AccountService struct {
	users AccountStore
}

// NewAccountService 创建用户服务
func NewAccountService(users AccountStore) *AccountService {
	return &AccountService{users: users}
}

// ==================== 管理员 ====================

// ListAccounts 用户列表，search 匹配用户名
func (s *AccountService) ListAccounts(ctx context.Context, p *model.Principal, search string, pq PageQuery) ([]*model.User, int64, error) {
	if err := policy.CheckCollection(p, policy.Account, policy.List); err != nil {
		return nil, 0, err
	}
	items, total, err := s.users.List(ctx, strings.TrimSpace(search), pq.toRepo())
	return wrapList(items, total, err)
}

// CreateAccount 管理员直接创建用户，不发送确认码
func (s *AccountService) CreateAccount(ctx context.Context, p *model.Principal, in AccountInput) (*model.User, error) {
	if err := policy.CheckCollection(p, policy.Account, policy.Create); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, &in.Username, &in.Email); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, accountWriteError(err)
	}
	return user, nil
}

// GetAccount 按用户名查看用户
func (s *AccountService) GetAccount(ctx context.Context, p *model.Principal, username string) (*model.User, error) {
	if err := policy.CheckCollection(p, policy.Account, policy.Retrieve); err != nil {
		return nil, err
	}
	return s.load(ctx, username)
}

// UpdateAccount 管理员部分更新用户，包括角色
func (s *AccountService) UpdateAccount(ctx context.Context, p *model.Principal, username string, in AccountPatch) (*model.User, error) {
	if err := policy.CheckCollection(p, policy.Account, policy.Update); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckObject(p, policy.Account, policy.Update, user.ID); err != nil {
		return nil, err
	}
	return s.apply(ctx, user, in)
}

// DeleteAccount 删除用户，其评论与回复级联删除
func (s *AccountService) DeleteAccount(ctx context.Context, p *model.Principal, username string) error {
	if err := policy.CheckCollection(p, policy.Account, policy.Delete); err != nil {
		return err
	}
	user, err := s.load(ctx, username)
	if err != nil {
		return err
	}
	if err := policy.CheckObject(p, policy.Account, policy.Delete, user.ID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// ==================== 自助 ====================

// GetSelf 当前用户资料
func (s *AccountService) GetSelf(ctx context.Context, p *model.Principal) (*model.User, error) {
	if err := policy.CheckSelf(p); err != nil {
		return nil, err
	}
	return s.self(ctx, p)
}

// UpdateSelf 修改自己的资料，角色保持不变
func (s *AccountService) UpdateSelf(ctx context.Context, p *model.Principal, in SelfPatch) (*model.User, error) {
	if err := policy.CheckSelf(p); err != nil {
		return nil, err
	}
	user, err := s.self(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, in.asAccountPatch())
}

func (s *AccountService) self(ctx context.Context, p *model.Principal) (*model.User, error) {
	user, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		// 令牌有效但账户已被删除
		return nil, apperr.Unauthenticated("account no longer exists")
	}
	return user, nil
}

func (s *AccountService) load(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// apply 校验并写入变更字段
func (s *AccountService) apply(ctx context.Context, user *model.User, in AccountPatch) (*model.User, error) {
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := validation.NormalizeEmail(*in.Email)
		in.Email = &v
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, user.ID, in.Username, in.Email); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Username != nil {
		fields["username"] = *in.Username
		user.Username = *in.Username
	}
	if in.Email != nil {
		fields["email"] = *in.Email
		user.Email = *in.Email
	}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
		user.LastName = *in.LastName
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
		user.Bio = *in.Bio
	}
	if in.Role != nil {
		fields["role"] = *in.Role
		user.Role = *in.Role
	}

	if err := s.users.Update(ctx, user, fields); err != nil {
		return nil, accountWriteError(err)
	}
	return user, nil
}

// checkUnique 用户名、邮箱不能被其他账户占用；selfID 为 0 表示新建
func (s *AccountService) checkUnique(ctx context.Context, selfID int, username, email *string) error {
	if username != nil {
		other, err := s.users.FindByUsername(ctx, *username)
		if err != nil {
			return apperr.Internal(err)
		}
		if other != nil && other.ID != selfID {
			return apperr.Conflict("username", "a user with that username already exists")
		}
	}
	if email != nil {
		other, err := s.users.FindByEmail(ctx, *email)
		if err != nil {
			return apperr.Internal(err)
		}
		if other != nil && other.ID != selfID {
			return apperr.Conflict("email", "a user with that email already exists")
		}
	}
	return nil
}

func accountWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict("username", "a user with that username or email already exists")
	}
	return apperr.Internal(err)
}
