package service

import (
	"context"
	"math"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// TitleStore 作品存储
type TitleStore interface {
	FindByID(ctx context.Context, id int) (*model.Title, error)
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context, f repository.TitleFilter, page repository.Page) ([]*model.Title, int64, error)
	Create(ctx context.Context, title *model.Title) error
	Update(ctx context.Context, title *model.Title, fields map[string]interface{}, genres []*model.Genre) error
	Delete(ctx context.Context, id int) error
}

// TagStore 分类/类型存储
type TagStore[T model.Category | model.Genre] interface {
	Create(ctx context.Context, tag *T) error
	FindBySlug(ctx context.Context, slug string) (*T, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]*T, error)
	DeleteBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, search string, page repository.Page) ([]*T, int64, error)
}

// ReviewStore 评论存储
type ReviewStore interface {
	FindInTitle(ctx context.Context, titleID, reviewID int) (*model.Review, error)
	ExistsByAuthor(ctx context.Context, titleID, authorID int) (bool, error)
	ListByTitle(ctx context.Context, titleID int, page repository.Page) ([]*model.Review, int64, error)
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review, fields map[string]interface{}) error
	Delete(ctx context.Context, id int) error
}

// CommentStore 回复存储
type CommentStore interface {
	FindInReview(ctx context.Context, reviewID, commentID int) (*model.Comment, error)
	ListByReview(ctx context.Context, reviewID int, page repository.Page) ([]*model.Comment, int64, error)
	Create(ctx context.Context, comment *model.Comment) error
	Update(ctx context.Context, comment *model.Comment, fields map[string]interface{}) error
	Delete(ctx context.Context, id int) error
}

// AccountStore 用户存储
type AccountStore interface {
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User, fields map[string]interface{}) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, search string, page repository.Page) ([]*model.User, int64, error)
}

// 分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage 保证 (page-1)*page_size 不溢出 int32
	MaxPage = math.MaxInt32 / MaxPageSize
)

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Normalize 补全默认值并限制范围
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

func (q PageQuery) toRepo() repository.Page {
	q = q.Normalize()
	return repository.Page{Limit: q.PageSize, Offset: (q.Page - 1) * q.PageSize}
}
