package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID          int       `json:"-" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"size:254;uniqueIndex;not null"`
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	Bio         string    `json:"bio"`
	Role        Role      `json:"role" gorm:"size:16;not null;default:user;check:chk_users_role,role IN ('user','moderator','admin')"`
	IsSuperuser bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"-"`
}

// Principal 转换为鉴权主体
func (u *User) Principal() *Principal {
	if u == nil {
		return nil
	}
	return &Principal{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Superuser: u.IsSuperuser,
	}
}
