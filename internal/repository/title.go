package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
)

// TitleFilter 作品列表过滤条件
type TitleFilter struct {
	Name     string // 名称包含（忽略大小写）
	Year     *int
	Category string // 分类 slug
	Genre    string // 类型 slug
}

// TitleRepository 作品仓库
type TitleRepository struct {
	db *gorm.DB
}

// NewTitleRepository 创建作品仓库
func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

// withRating 每次读取时按评论实时计算平均分，评分不落库
func withRating(db *gorm.DB) *gorm.DB {
	ratings := db.Session(&gorm.Session{NewDB: true}).
		Model(&model.Review{}).
		Select("title_id, AVG(score) AS rating").
		Group("title_id")

	return db.Select("titles.*, r.rating").
		Joins("LEFT JOIN (?) AS r ON r.title_id = titles.id", ratings).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB {
			return db.Order("genres.name ASC")
		})
}

// FindByID 根据 ID 查找作品（含评分、分类、类型）
func (r *TitleRepository) FindByID(ctx context.Context, id int) (*model.Title, error) {
	var title model.Title
	err := r.db.WithContext(ctx).Model(&model.Title{}).
		Scopes(withRating).
		Where("titles.id = ?", id).
		First(&title).Error
	return notFoundAsNil(&title, err)
}

// Exists 作品是否存在
func (r *TitleRepository) Exists(ctx context.Context, id int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Title{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List 分页获取作品列表
func (r *TitleRepository) List(ctx context.Context, f TitleFilter, page Page) ([]*model.Title, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if f.Name != "" {
			db = db.Where("titles.name ILIKE ?", "%"+escapeLike(f.Name)+"%")
		}
		if f.Year != nil {
			db = db.Where("titles.year = ?", *f.Year)
		}
		if f.Category != "" {
			sub := db.Session(&gorm.Session{NewDB: true}).
				Model(&model.Category{}).Select("id").Where("slug = ?", f.Category)
			db = db.Where("titles.category_id IN (?)", sub)
		}
		if f.Genre != "" {
			sub := db.Session(&gorm.Session{NewDB: true}).
				Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", f.Genre)
			db = db.Where("titles.id IN (?)", sub)
		}
		return db
	}
	list := func(db *gorm.DB) *gorm.DB {
		return withRating(db).Order("titles.name ASC").Order("titles.id ASC")
	}
	return paginate[model.Title](ctx, r.db, page, filter, list)
}

// Create 创建作品并关联类型（类型需已存在）
func (r *TitleRepository) Create(ctx context.Context, title *model.Title) error {
	return translate(r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(title).Error)
}

// Update 更新作品字段；genres 非 nil 时整体替换类型
func (r *TitleRepository) Update(ctx context.Context, title *model.Title, fields map[string]interface{}, genres []*model.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&model.Title{ID: title.ID}).Updates(fields).Error; err != nil {
				return translate(err)
			}
		}
		if genres != nil {
			if err := tx.Model(&model.Title{ID: title.ID}).Omit("Genres.*").Association("Genres").Replace(genres); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

// Delete 删除作品（评论及其回复级联删除）
func (r *TitleRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.Title{}, id).Error
}
