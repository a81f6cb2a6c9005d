package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
)

// CommentRepository 回复仓库
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建回复仓库
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// FindInReview 在指定评论下查找回复
func (r *CommentRepository) FindInReview(ctx context.Context, reviewID, commentID int) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error
	return notFoundAsNil(&comment, err)
}

// ListByReview 按发布时间升序分页获取回复
func (r *CommentRepository) ListByReview(ctx context.Context, reviewID int, page Page) ([]*model.Comment, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		return db.Where("review_id = ?", reviewID)
	}
	list := func(db *gorm.DB) *gorm.DB {
		return db.Preload("Author").Order("pub_date ASC").Order("id ASC")
	}
	return paginate[model.Comment](ctx, r.db, page, filter, list)
}

// Create 创建回复
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return translate(r.db.WithContext(ctx).Omit("Review", "Author").Create(comment).Error)
}

// Update 按字段更新回复
func (r *CommentRepository) Update(ctx context.Context, comment *model.Comment, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(comment).Omit("Review", "Author").Updates(fields).Error)
}

// Delete 删除回复
func (r *CommentRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.Comment{}, id).Error
}
