package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

func TestPageQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageQuery
		want repository.Page
	}{
		{"默认值", PageQuery{}, repository.Page{Limit: DefaultPageSize, Offset: 0}},
		{"第三页", PageQuery{Page: 3, PageSize: 20}, repository.Page{Limit: 20, Offset: 40}},
		{"每页上限", PageQuery{Page: 1, PageSize: 1000}, repository.Page{Limit: MaxPageSize, Offset: 0}},
		{"负数页码", PageQuery{Page: -5, PageSize: 10}, repository.Page{Limit: 10, Offset: 0}},
		{"超大页码不溢出", PageQuery{Page: 1 << 62, PageSize: 100}, repository.Page{Limit: 100, Offset: (MaxPage - 1) * 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.toRepo()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Offset, 0)
		})
	}
}

func TestListBeyondLastPage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	alice := env.user("alice", model.RoleUser)
	title := env.title("Solaris", 1972)
	_, err := env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "great", Score: 8})
	require.NoError(t, err)

	items, total, err := env.content.ListReviews(ctx, nil, title.ID, PageQuery{Page: 1 << 62, PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, items)
}
