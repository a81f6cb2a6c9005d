package service

import (
	"context"
	"errors"
	"strings"

	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/validation"
)

// TagInput 创建分类/类型
type TagInput struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// TitleInput 创建作品，category/genre 传 slug
type TitleInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required,pastyear"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"omitempty,max=50"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50"`
}

// TitlePatch 部分更新作品；Category 为空串表示清除分类，Genre 非 nil 表示整体替换
type TitlePatch struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=256"`
	Year        *int     `json:"year" validate:"omitnil,pastyear"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitnil,max=50"`
	Genre       []string `json:"genre" validate:"omitempty,dive,max=50"`
}

// TitleQuery 作品列表过滤参数
type TitleQuery struct {
	Name     string `form:"name"`
	Year     *int   `form:"year"`
	Category string `form:"category"`
	Genre    string `form:"genre"`
	PageQuery
}

// CatalogService 分类、类型、作品
type CatalogService struct {
	titles     TitleStore
	categories TagStore[model.Category]
	genres     TagStore[model.Genre]
}

// NewCatalogService 创建目录服务
func NewCatalogService(titles TitleStore, categories TagStore[model.Category], genres TagStore[model.Genre]) *CatalogService {
	return &CatalogService{titles: titles, categories: categories, genres: genres}
}

// ==================== 分类 / 类型 ====================

// ListCategories 分类列表
func (s *CatalogService) ListCategories(ctx context.Context, p *model.Principal, search string, pq PageQuery) ([]*model.Category, int64, error) {
	if err := policy.CheckCollection(p, policy.Category, policy.List); err != nil {
		return nil, 0, err
	}
	items, total, err := s.categories.List(ctx, search, pq.toRepo())
	return wrapList(items, total, err)
}

// CreateCategory 创建分类
func (s *CatalogService) CreateCategory(ctx context.Context, p *model.Principal, in TagInput) (*model.Category, error) {
	if err := policy.CheckCollection(p, policy.Category, policy.Create); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	category := &model.Category{Name: in.Name, Slug: in.Slug}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, tagCreateError(err)
	}
	return category, nil
}

// DeleteCategory 删除分类，引用该分类的作品保留，分类置空
func (s *CatalogService) DeleteCategory(ctx context.Context, p *model.Principal, slug string) error {
	if err := policy.CheckCollection(p, policy.Category, policy.Delete); err != nil {
		return err
	}
	return tagDeleteResult(s.categories.DeleteBySlug(ctx, slug))
}

// ListGenres 类型列表
func (s *CatalogService) ListGenres(ctx context.Context, p *model.Principal, search string, pq PageQuery) ([]*model.Genre, int64, error) {
	if err := policy.CheckCollection(p, policy.Genre, policy.List); err != nil {
		return nil, 0, err
	}
	items, total, err := s.genres.List(ctx, search, pq.toRepo())
	return wrapList(items, total, err)
}

// CreateGenre 创建类型
func (s *CatalogService) CreateGenre(ctx context.Context, p *model.Principal, in TagInput) (*model.Genre, error) {
	if err := policy.CheckCollection(p, policy.Genre, policy.Create); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	genre := &model.Genre{Name: in.Name, Slug: in.Slug}
	if err := s.genres.Create(ctx, genre); err != nil {
		return nil, tagCreateError(err)
	}
	return genre, nil
}

// DeleteGenre 删除类型
func (s *CatalogService) DeleteGenre(ctx context.Context, p *model.Principal, slug string) error {
	if err := policy.CheckCollection(p, policy.Genre, policy.Delete); err != nil {
		return err
	}
	return tagDeleteResult(s.genres.DeleteBySlug(ctx, slug))
}

func tagCreateError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict("slug", "this slug is already in use")
	}
	return apperr.Internal(err)
}

func tagDeleteResult(deleted bool, err error) error {
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return apperr.NotFound("no such slug")
	}
	return nil
}

// ==================== 作品 ====================

// ListTitles 作品列表（含实时评分）
func (s *CatalogService) ListTitles(ctx context.Context, p *model.Principal, q TitleQuery) ([]*model.Title, int64, error) {
	if err := policy.CheckCollection(p, policy.Title, policy.List); err != nil {
		return nil, 0, err
	}
	f := repository.TitleFilter{
		Name:     strings.TrimSpace(q.Name),
		Year:     q.Year,
		Category: q.Category,
		Genre:    q.Genre,
	}
	titles, total, err := s.titles.List(ctx, f, q.PageQuery.toRepo())
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	applyRating(titles...)
	return titles, total, nil
}

// GetTitle 作品详情（含实时评分）
func (s *CatalogService) GetTitle(ctx context.Context, p *model.Principal, id int) (*model.Title, error) {
	if err := policy.CheckCollection(p, policy.Title, policy.Retrieve); err != nil {
		return nil, err
	}
	return s.loadTitle(ctx, id)
}

// CreateTitle 创建作品
func (s *CatalogService) CreateTitle(ctx context.Context, p *model.Principal, in TitleInput) (*model.Title, error) {
	if err := policy.CheckCollection(p, policy.Title, policy.Create); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	title := &model.Title{Name: in.Name, Year: in.Year, Description: in.Description}
	if in.Category != "" {
		category, err := s.resolveCategory(ctx, in.Category)
		if err != nil {
			return nil, err
		}
		categoryID := category.ID
		title.CategoryID = &categoryID
	}
	genres, err := s.resolveGenres(ctx, in.Genre)
	if err != nil {
		return nil, err
	}
	for _, g := range genres {
		title.Genres = append(title.Genres, *g)
	}

	if err := s.titles.Create(ctx, title); err != nil {
		return nil, s.titleWriteError(ctx, err, in.Category, in.Genre)
	}
	return s.loadTitle(ctx, title.ID)
}

// UpdateTitle 部分更新作品
func (s *CatalogService) UpdateTitle(ctx context.Context, p *model.Principal, id int, in TitlePatch) (*model.Title, error) {
	if err := policy.CheckCollection(p, policy.Title, policy.Update); err != nil {
		return nil, err
	}
	title, err := s.loadTitle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckObject(p, policy.Title, policy.Update, 0); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Year != nil {
		fields["year"] = *in.Year
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	var category string
	if in.Category != nil {
		category = *in.Category
		if category == "" {
			fields["category_id"] = nil
		} else {
			c, err := s.resolveCategory(ctx, category)
			if err != nil {
				return nil, err
			}
			fields["category_id"] = c.ID
		}
	}

	var genres []*model.Genre
	if in.Genre != nil {
		if genres, err = s.resolveGenres(ctx, in.Genre); err != nil {
			return nil, err
		}
		if genres == nil {
			genres = []*model.Genre{}
		}
	}

	if err := s.titles.Update(ctx, title, fields, genres); err != nil {
		return nil, s.titleWriteError(ctx, err, category, in.Genre)
	}
	return s.loadTitle(ctx, id)
}

// DeleteTitle 删除作品及其评论、回复
func (s *CatalogService) DeleteTitle(ctx context.Context, p *model.Principal, id int) error {
	if err := policy.CheckCollection(p, policy.Title, policy.Delete); err != nil {
		return err
	}
	if _, err := s.loadTitle(ctx, id); err != nil {
		return err
	}
	if err := policy.CheckObject(p, policy.Title, policy.Delete, 0); err != nil {
		return err
	}
	if err := s.titles.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *CatalogService) loadTitle(ctx context.Context, id int) (*model.Title, error) {
	title, err := s.titles.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if title == nil {
		return nil, apperr.NotFound("title not found")
	}
	applyRating(title)
	return title, nil
}

// resolveCategory 通过 slug 查找分类，每次请求都读库
func (s *CatalogService) resolveCategory(ctx context.Context, slug string) (*model.Category, error) {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if c == nil {
		return nil, apperr.InvalidField("category", "unknown category slug \""+slug+"\"")
	}
	return c, nil
}

// resolveGenres 通过 slug 批量查找类型，重复 slug 只查一次，任一不存在即报错
func (s *CatalogService) resolveGenres(ctx context.Context, slugs []string) ([]*model.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			unique = append(unique, slug)
		}
	}

	loaded, err := s.genres.FindBySlugs(ctx, unique)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	found := make(map[string]*model.Genre, len(loaded))
	for _, g := range loaded {
		found[g.Slug] = g
	}

	genres := make([]*model.Genre, 0, len(unique))
	for _, slug := range unique {
		g := found[slug]
		if g == nil {
			return nil, apperr.InvalidField("genre", "unknown genre slug \""+slug+"\"")
		}
		genres = append(genres, g)
	}
	return genres, nil
}

// titleWriteError 解析后、写入前分类或类型被删除时，外键冲突重新解析以指出出错字段
func (s *CatalogService) titleWriteError(ctx context.Context, err error, category string, genres []string) error {
	if !errors.Is(err, repository.ErrReferenceMissing) {
		return apperr.Internal(err)
	}
	if category != "" {
		if _, rerr := s.resolveCategory(ctx, category); rerr != nil {
			return rerr
		}
	}
	if _, rerr := s.resolveGenres(ctx, genres); rerr != nil {
		return rerr
	}
	field := "genre"
	if category != "" {
		field = "category"
	}
	return apperr.InvalidField(field, "referenced category or genre no longer exists")
}

func wrapList[T any](items []*T, total int64, err error) ([]*T, int64, error) {
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}
