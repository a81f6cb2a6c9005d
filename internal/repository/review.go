package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
)

// ReviewRepository 评论仓库
type ReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评论仓库
func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindInTitle 在指定作品下查找评论，评论属于其他作品时返回 nil
func (r *ReviewRepository) FindInTitle(ctx context.Context, titleID, reviewID int) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	return notFoundAsNil(&review, err)
}

// ExistsByAuthor 作者是否已评论过该作品
func (r *ReviewRepository) ExistsByAuthor(ctx context.Context, titleID, authorID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	return count > 0, err
}

// ListByTitle 按发布时间升序分页获取作品下的评论
func (r *ReviewRepository) ListByTitle(ctx context.Context, titleID int, page Page) ([]*model.Review, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		return db.Where("title_id = ?", titleID)
	}
	list := func(db *gorm.DB) *gorm.DB {
		return db.Preload("Author").Order("pub_date ASC").Order("id ASC")
	}
	return paginate[model.Review](ctx, r.db, page, filter, list)
}

// Create 创建评论，(author, title) 唯一约束冲突返回 ErrDuplicate
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return translate(r.db.WithContext(ctx).Omit("Title", "Author").Create(review).Error)
}

// Update 按字段更新评论
func (r *ReviewRepository) Update(ctx context.Context, review *model.Review, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Model(review).Omit("Title", "Author").Updates(fields).Error)
}

// Delete 删除评论（回复级联删除）
func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.Review{}, id).Error
}
