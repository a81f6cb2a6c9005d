package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
)

// TagRepository 分类/类型这类 name+slug 标签的仓库
type TagRepository[T model.Category | model.Genre] struct {
	db *gorm.DB
}

// CategoryRepository 分类仓库
type CategoryRepository = TagRepository[model.Category]

// GenreRepository 类型仓库
type GenreRepository = TagRepository[model.Genre]

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// NewGenreRepository 创建类型仓库
func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// Create 创建标签
func (r *TagRepository[T]) Create(ctx context.Context, tag *T) error {
	return translate(r.db.WithContext(ctx).Create(tag).Error)
}

// FindBySlug 根据 slug 查找
func (r *TagRepository[T]) FindBySlug(ctx context.Context, slug string) (*T, error) {
	var tag T
	return notFoundAsNil(&tag, r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error)
}

// FindBySlugs 批量查找，顺序不保证
func (r *TagRepository[T]) FindBySlugs(ctx context.Context, slugs []string) ([]*T, error) {
	var tags []*T
	if len(slugs) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&tags).Error
	return tags, err
}

// DeleteBySlug 删除标签。分类被删除时作品的 category_id 置空；类型被删除时关联行级联删除。
func (r *TagRepository[T]) DeleteBySlug(ctx context.Context, slug string) (bool, error) {
	res := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(new(T))
	return res.RowsAffected > 0, res.Error
}

// List 分页获取标签，search 按名称模糊匹配
func (r *TagRepository[T]) List(ctx context.Context, search string, page Page) ([]*T, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if search != "" {
			db = db.Where("name ILIKE ?", "%"+escapeLike(search)+"%")
		}
		return db
	}
	order := func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC").Order("id ASC")
	}
	return paginate[T](ctx, r.db, page, filter, order)
}
