package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository/memstore"
)

func seedCatalog(t *testing.T, env *testEnv, admin *model.Principal) {
	t.Helper()
	ctx := context.Background()
	_, err := env.catalog.CreateCategory(ctx, admin, TagInput{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	_, err = env.catalog.CreateCategory(ctx, admin, TagInput{Name: "Books", Slug: "books"})
	require.NoError(t, err)
	_, err = env.catalog.CreateGenre(ctx, admin, TagInput{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)
	_, err = env.catalog.CreateGenre(ctx, admin, TagInput{Name: "Sci-Fi", Slug: "sci-fi"})
	require.NoError(t, err)
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	alice := env.user("alice", model.RoleUser)
	seedCatalog(t, env, admin)

	items, total, err := env.catalog.ListCategories(ctx, nil, "", PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Books", items[0].Name, "按名称排序")

	items, _, err = env.catalog.ListCategories(ctx, nil, "fil", PageQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "films", items[0].Slug)

	_, err = env.catalog.CreateCategory(ctx, alice, TagInput{Name: "Music", Slug: "music"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = env.catalog.CreateCategory(ctx, nil, TagInput{Name: "Music", Slug: "music"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = env.catalog.CreateCategory(ctx, admin, TagInput{Name: "Dup", Slug: "films"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = env.catalog.CreateCategory(ctx, admin, TagInput{Name: "Bad", Slug: "no spaces"})
	assert.ErrorIs(t, err, apperr.ErrInvalidField)

	err = env.catalog.DeleteCategory(ctx, admin, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateTitleWithSlugs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	seedCatalog(t, env, admin)

	title, err := env.catalog.CreateTitle(ctx, admin, TitleInput{
		Name:     "Solaris",
		Year:     1972,
		Category: "films",
		Genre:    []string{"sci-fi", "drama", "sci-fi"},
	})
	require.NoError(t, err)
	require.NotNil(t, title.Category)
	assert.Equal(t, "films", title.Category.Slug)
	assert.Len(t, title.Genres, 2, "重复的 slug 只关联一次")
	assert.Nil(t, title.Rating)

	tests := []struct {
		name  string
		in    TitleInput
		field string
	}{
		{"未知分类", TitleInput{Name: "X", Year: 2000, Category: "nope"}, "category"},
		{"未知类型", TitleInput{Name: "X", Year: 2000, Genre: []string{"drama", "nope"}}, "genre"},
		{"未来年份", TitleInput{Name: "X", Year: time.Now().Year() + 1}, "year"},
		{"名称为空", TitleInput{Year: 2000}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreateTitle(ctx, admin, tt.in)
			require.Error(t, err)
			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, apperr.KindInvalidField, e.Kind)
			assert.Equal(t, tt.field, e.Field)
		})
	}

	// 分类可选
	bare, err := env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Bare", Year: time.Now().Year()})
	require.NoError(t, err)
	assert.Nil(t, bare.Category)
}

func TestUpdateTitlePartial(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	mod := env.user("mod", model.RoleModerator)
	seedCatalog(t, env, admin)

	title, err := env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Solaris", Year: 1972, Category: "films", Genre: []string{"drama"}})
	require.NoError(t, err)

	_, err = env.catalog.UpdateTitle(ctx, mod, title.ID, TitlePatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := env.catalog.UpdateTitle(ctx, admin, title.ID, TitlePatch{Year: intPtr(1973)})
	require.NoError(t, err)
	assert.Equal(t, "Solaris", updated.Name)
	assert.Equal(t, 1973, updated.Year)
	require.NotNil(t, updated.Category)
	assert.Len(t, updated.Genres, 1)

	updated, err = env.catalog.UpdateTitle(ctx, admin, title.ID, TitlePatch{Category: strPtr(""), Genre: []string{"sci-fi", "drama"}})
	require.NoError(t, err)
	assert.Nil(t, updated.Category)
	assert.Len(t, updated.Genres, 2)

	updated, err = env.catalog.UpdateTitle(ctx, admin, title.ID, TitlePatch{Genre: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Genres)

	_, err = env.catalog.UpdateTitle(ctx, admin, 999, TitlePatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListTitlesFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	seedCatalog(t, env, admin)

	_, err := env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Solaris", Year: 1972, Category: "films", Genre: []string{"sci-fi"}})
	require.NoError(t, err)
	_, err = env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Solaris", Year: 1961, Category: "books", Genre: []string{"sci-fi"}})
	require.NoError(t, err)
	_, err = env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Mirror", Year: 1975, Category: "films", Genre: []string{"drama"}})
	require.NoError(t, err)

	tests := []struct {
		name string
		q    TitleQuery
		want int
	}{
		{"无过滤", TitleQuery{}, 3},
		{"名称包含忽略大小写", TitleQuery{Name: "sol"}, 2},
		{"年份精确", TitleQuery{Year: intPtr(1961)}, 1},
		{"分类 slug", TitleQuery{Category: "films"}, 2},
		{"类型 slug", TitleQuery{Genre: "drama"}, 1},
		{"组合条件", TitleQuery{Name: "solaris", Category: "books"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := env.catalog.ListTitles(ctx, nil, tt.q)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.want), total)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestDeleteCategoryKeepsTitles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	seedCatalog(t, env, admin)

	title, err := env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Solaris", Year: 1972, Category: "films"})
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteCategory(ctx, admin, "films"))

	got, err := env.catalog.GetTitle(ctx, nil, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)

	// 缓存已失效，已删除的 slug 不能再被引用
	_, err = env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Again", Year: 1972, Category: "films"})
	assert.ErrorIs(t, err, apperr.ErrInvalidField)
}

func TestDeletedSlugSeenByOtherInstance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	seedCatalog(t, env, admin)
	other := NewCatalogService(env.db.Titles(), env.db.Categories(), env.db.Genres())

	_, err := env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "First", Year: 2000, Category: "films", Genre: []string{"drama"}})
	require.NoError(t, err)

	require.NoError(t, other.DeleteCategory(ctx, admin, "films"))
	require.NoError(t, other.DeleteGenre(ctx, admin, "drama"))

	_, err = env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Second", Year: 2000, Category: "films"})
	require.ErrorIs(t, err, apperr.ErrInvalidField)
	assert.Equal(t, "category", err.(*apperr.Error).Field)

	_, err = env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Second", Year: 2000, Genre: []string{"drama"}})
	require.ErrorIs(t, err, apperr.ErrInvalidField)
	assert.Equal(t, "genre", err.(*apperr.Error).Field)

	recreated, err := other.CreateCategory(ctx, admin, TagInput{Name: "Films", Slug: "films"})
	require.NoError(t, err)

	title, err := env.catalog.CreateTitle(ctx, admin, TitleInput{Name: "Third", Year: 2000, Category: "films"})
	require.NoError(t, err)
	require.NotNil(t, title.Category, "重建的分类应被关联")
	assert.Equal(t, recreated.ID, *title.CategoryID)
}

// staleTags 模拟解析之后、写入之前分类/类型被删除：返回的记录在库里已不存在
type staleTags[T model.Category | model.Genre] struct {
	TagStore[T]
	stale *T
}

func (s staleTags[T]) FindBySlug(context.Context, string) (*T, error) {
	return s.stale, nil
}

func (s staleTags[T]) FindBySlugs(context.Context, []string) ([]*T, error) {
	return []*T{s.stale}, nil
}

func TestTitleWriteReferenceRace(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	admin := &model.Principal{ID: 1, Username: "root", Role: model.RoleAdmin}

	tests := []struct {
		name      string
		svc       *CatalogService
		in        TitleInput
		wantField string
	}{
		{
			"分类已删除",
			NewCatalogService(db.Titles(), staleTags[model.Category]{db.Categories(), &model.Category{ID: 404, Slug: "gone"}}, db.Genres()),
			TitleInput{Name: "X", Year: 2000, Category: "gone"},
			"category",
		},
		{
			"类型已删除",
			NewCatalogService(db.Titles(), db.Categories(), staleTags[model.Genre]{db.Genres(), &model.Genre{ID: 404, Slug: "gone"}}),
			TitleInput{Name: "X", Year: 2000, Genre: []string{"gone"}},
			"genre",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.CreateTitle(ctx, admin, tt.in)
			require.ErrorIs(t, err, apperr.ErrInvalidField)
			assert.NotErrorIs(t, err, apperr.ErrInternal)
			assert.Equal(t, tt.wantField, err.(*apperr.Error).Field)
		})
	}
}
