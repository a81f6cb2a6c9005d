package repository

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Page 分页参数
type Page struct {
	Limit  int
	Offset int
}

// paginate 并发执行计数和分页查询。
// filter 只加过滤条件，用于计数；list 在 filter 基础上加排序、预加载等。
func paginate[T any](ctx context.Context, db *gorm.DB, page Page, filter, list func(*gorm.DB) *gorm.DB) ([]*T, int64, error) {
	var (
		items []*T
		total int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(ctx).Model(new(T)).Scopes(filter).Count(&total).Error
	})
	g.Go(func() error {
		q := db.WithContext(ctx).Model(new(T)).Scopes(filter, list)
		if page.Limit > 0 {
			q = q.Limit(page.Limit).Offset(page.Offset)
		}
		return q.Find(&items).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
