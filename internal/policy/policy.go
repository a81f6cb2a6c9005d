// Package policy 请求级鉴权规则。
//
// 每个请求先过集合级检查（CheckCollection），资源解析出来之后再过对象级检查（CheckObject）。
// 未认证返回 Unauthenticated，已认证但权限不足返回 Forbidden。
package policy

import (
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
)

// Resource 资源类型
type Resource string

const (
	Title    Resource = "title"
	Category Resource = "category"
	Genre    Resource = "genre"
	Review   Resource = "review"
	Comment  Resource = "comment"
	Account  Resource = "account"
)

// Action 操作类型
type Action string

const (
	List     Action = "list"
	Retrieve Action = "retrieve"
	Create   Action = "create"
	Update   Action = "update"
	Delete   Action = "delete"
)

// Safe 只读操作
func (a Action) Safe() bool {
	return a == List || a == Retrieve
}

// catalog 资源只允许管理员修改
func (r Resource) catalog() bool {
	return r == Title || r == Category || r == Genre
}

// authored 资源有作者，作者本人可修改
func (r Resource) authored() bool {
	return r == Review || r == Comment
}

// CheckCollection 集合级检查
func CheckCollection(p *model.Principal, res Resource, act Action) error {
	if res == Account {
		return requireAdmin(p)
	}
	if act.Safe() {
		return nil
	}
	switch {
	case res.catalog():
		return requireAdmin(p)
	case res.authored():
		return requireAuth(p)
	}
	return apperr.Forbidden("unknown resource")
}

// CheckObject 对象级检查，authorID 为资源作者（无作者的资源传 0）
func CheckObject(p *model.Principal, res Resource, act Action, authorID int) error {
	if res == Account {
		return requireAdmin(p)
	}
	if act.Safe() {
		return nil
	}
	switch {
	case res.catalog():
		return requireAdmin(p)
	case res.authored():
		if err := requireAuth(p); err != nil {
			return err
		}
		if !model.CanModifyOwnedContent(p, authorID) {
			return apperr.Forbidden("only the author or a moderator may change this " + string(res))
		}
		return nil
	}
	return apperr.Forbidden("unknown resource")
}

// CheckSelf 访问 /users/me，只需登录
func CheckSelf(p *model.Principal) error {
	return requireAuth(p)
}

func requireAuth(p *model.Principal) error {
	if p == nil {
		return apperr.Unauthenticated("authentication credentials were not provided")
	}
	return nil
}

func requireAdmin(p *model.Principal) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !model.IsAdmin(p) {
		return apperr.Forbidden("administrator role required")
	}
	return nil
}
