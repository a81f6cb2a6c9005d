package model

// Role 用户角色
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles 全部合法角色
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Principal 当前请求的已认证身份，nil 表示匿名
type Principal struct {
	ID        int
	Username  string
	Role      Role
	Superuser bool
}

// IsAdmin 管理员或超级用户
func IsAdmin(p *Principal) bool {
	if p == nil {
		return false
	}
	return p.Role == RoleAdmin || p.Superuser
}

// IsModerator 版主权限，管理员隐含拥有
func IsModerator(p *Principal) bool {
	if p == nil {
		return false
	}
	return p.Role == RoleModerator || IsAdmin(p)
}

// CanModifyOwnedContent 能否修改一条有作者的内容（评论/回复）
func CanModifyOwnedContent(p *Principal, authorID int) bool {
	if p == nil {
		return false
	}
	return IsModerator(p) || p.ID == authorID
}
