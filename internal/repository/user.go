package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByUsername 根据用户名查找用户
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	return notFoundAsNil(&user, r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error)
}

// FindByEmail 根据邮箱查找用户
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	return notFoundAsNil(&user, r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error)
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	return notFoundAsNil(&user, r.db.WithContext(ctx).First(&user, id).Error)
}

// Update 按字段更新用户，fields 为列名到值的映射
func (r *UserRepository) Update(ctx context.Context, user *model.User, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(user).Updates(fields).Error)
}

// Delete 删除用户（评论、回复级联删除）
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, id).Error
}

// List 分页获取用户列表，search 按用户名模糊匹配
func (r *UserRepository) List(ctx context.Context, search string, page Page) ([]*model.User, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			db = db.Where("username ILIKE ?", "%"+escapeLike(search)+"%")
		}
		return db
	}
	order := func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}
	return paginate[model.User](ctx, r.db, page, filter, order)
}
