package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
)

// skipPrecheck 让唯一性预检总是放行，只剩存储层唯一约束把关
type skipPrecheck struct {
	ReviewStore
}

func (skipPrecheck) ExistsByAuthor(context.Context, int, int) (bool, error) {
	return false, nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestReviewLifecycleRating(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	alice := env.user("alice", model.RoleUser)
	bob := env.user("bob", model.RoleUser)
	title := env.title("Solaris", 1972)

	got, err := env.catalog.GetTitle(ctx, nil, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating, "没有评论时评分为空")

	r1, err := env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "great", Score: 8})
	require.NoError(t, err)
	assert.Equal(t, "alice", r1.AuthorName())
	assert.Equal(t, title.ID, r1.TitleID)

	r2, err := env.content.CreateReview(ctx, bob, title.ID, ReviewInput{Text: "meh", Score: 4})
	require.NoError(t, err)

	got, err = env.catalog.GetTitle(ctx, nil, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 6.0, *got.Rating)

	_, err = env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "again", Score: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "already reviewed")

	require.NoError(t, env.content.DeleteReview(ctx, admin, title.ID, r1.ID))
	got, err = env.catalog.GetTitle(ctx, nil, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.0, *got.Rating)

	require.NoError(t, env.content.DeleteReview(ctx, bob, title.ID, r2.ID))
	got, err = env.catalog.GetTitle(ctx, nil, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
}

func TestCreateReviewValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	alice := env.user("alice", model.RoleUser)
	title := env.title("Stalker", 1979)

	tests := []struct {
		name string
		p    *model.Principal
		id   int
		in   ReviewInput
		want apperr.Kind
	}{
		{"匿名用户", nil, title.ID, ReviewInput{Text: "x", Score: 5}, apperr.KindUnauthenticated},
		{"作品不存在", alice, 9999, ReviewInput{Text: "x", Score: 5}, apperr.KindNotFound},
		{"分数过低", alice, title.ID, ReviewInput{Text: "x", Score: 0}, apperr.KindInvalidField},
		{"分数过高", alice, title.ID, ReviewInput{Text: "x", Score: 11}, apperr.KindInvalidField},
		{"正文为空", alice, title.ID, ReviewInput{Text: "", Score: 5}, apperr.KindInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.content.CreateReview(ctx, tt.p, tt.id, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}

	r, err := env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "edge", Score: model.MaxScore})
	require.NoError(t, err)
	assert.Equal(t, 10, r.Score)
}

func TestUpdateReviewPermissions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	alice := env.user("alice", model.RoleUser)
	bob := env.user("bob", model.RoleUser)
	mod := env.user("mod", model.RoleModerator)
	admin := env.user("root", model.RoleAdmin)
	title := env.title("Mirror", 1975)

	review, err := env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "first", Score: 7})
	require.NoError(t, err)

	tests := []struct {
		name string
		p    *model.Principal
		want apperr.Kind
	}{
		{"匿名用户", nil, apperr.KindUnauthenticated},
		{"其他用户", bob, apperr.KindForbidden},
		{"作者本人", alice, ""},
		{"版主", mod, ""},
		{"管理员", admin, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := env.content.UpdateReview(ctx, tt.p, title.ID, review.ID, ReviewPatch{Text: strPtr("by " + tt.name)})
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, "by "+tt.name, updated.Text)
				assert.Equal(t, 7, updated.Score, "未提交的字段保持不变")
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}

	_, err = env.content.UpdateReview(ctx, alice, title.ID, review.ID, ReviewPatch{Score: intPtr(11)})
	assert.Equal(t, apperr.KindInvalidField, apperr.KindOf(err))

	_, err = env.content.UpdateReview(ctx, alice, title.ID, review.ID, ReviewPatch{Text: strPtr("")})
	assert.Equal(t, apperr.KindInvalidField, apperr.KindOf(err))
}

func TestNestedPathScoping(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	alice := env.user("alice", model.RoleUser)
	t1 := env.title("Andrei Rublev", 1966)
	t2 := env.title("Ivan's Childhood", 1962)

	r1, err := env.content.CreateReview(ctx, alice, t1.ID, ReviewInput{Text: "r1", Score: 9})
	require.NoError(t, err)
	c1, err := env.content.CreateComment(ctx, alice, t1.ID, r1.ID, CommentInput{Text: "c1"})
	require.NoError(t, err)
	assert.Equal(t, r1.ID, c1.ReviewID)
	assert.Equal(t, "alice", c1.AuthorName())

	// 评论属于 t1，通过 t2 访问视为不存在
	_, err = env.content.GetReview(ctx, nil, t2.ID, r1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.content.GetComment(ctx, nil, t2.ID, r1.ID, c1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = env.content.ListComments(ctx, nil, t2.ID, r1.ID, PageQuery{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.content.CreateComment(ctx, alice, t2.ID, r1.ID, CommentInput{Text: "nope"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = env.content.DeleteComment(ctx, alice, t2.ID, r1.ID, c1.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := env.content.GetComment(ctx, nil, t1.ID, r1.ID, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Text)
}

func TestCommentPermissions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	alice := env.user("alice", model.RoleUser)
	bob := env.user("bob", model.RoleUser)
	mod := env.user("mod", model.RoleModerator)
	title := env.title("Nostalghia", 1983)

	review, err := env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "r", Score: 6})
	require.NoError(t, err)
	comment, err := env.content.CreateComment(ctx, bob, title.ID, review.ID, CommentInput{Text: "bob says"})
	require.NoError(t, err)

	_, err = env.content.UpdateComment(ctx, alice, title.ID, review.ID, comment.ID, CommentInput{Text: "hijack"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := env.content.UpdateComment(ctx, bob, title.ID, review.ID, comment.ID, CommentInput{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	_, err = env.content.CreateComment(ctx, nil, title.ID, review.ID, CommentInput{Text: "anon"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	require.NoError(t, env.content.DeleteComment(ctx, mod, title.ID, review.ID, comment.ID))
	_, err = env.content.GetComment(ctx, nil, title.ID, review.ID, comment.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteTitleCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	admin := env.user("root", model.RoleAdmin)
	alice := env.user("alice", model.RoleUser)
	title := env.title("The Sacrifice", 1986)

	review, err := env.content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "r", Score: 5})
	require.NoError(t, err)
	_, err = env.content.CreateComment(ctx, alice, title.ID, review.ID, CommentInput{Text: "c"})
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteTitle(ctx, admin, title.ID))
	assert.Zero(t, env.db.ReviewCount())
	assert.Zero(t, env.db.CommentCount())

	_, _, err = env.content.ListReviews(ctx, nil, title.ID, PageQuery{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListReviewsPagination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	title := env.title("Zerkalo", 1975)
	for _, name := range []string{"u1", "u2", "u3"} {
		p := env.user(name, model.RoleUser)
		_, err := env.content.CreateReview(ctx, p, title.ID, ReviewInput{Text: name, Score: 5})
		require.NoError(t, err)
	}

	items, total, err := env.content.ListReviews(ctx, nil, title.ID, PageQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "u3", items[0].Text)
}

func TestCreateReviewConcurrentDuplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	content := NewContentService(env.db.Titles(), skipPrecheck{env.db.Reviews()}, env.db.Comments())
	alice := env.user("alice", model.RoleUser)
	title := env.title("Solaris", 1972)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = content.CreateReview(ctx, alice, title.ID, ReviewInput{Text: "same", Score: 7})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Equal(t, ErrAlreadyReviewed, err)
	}
	assert.Equal(t, 1, created, "并发重复评论只有一条成功")
	assert.Equal(t, 1, env.db.ReviewCount())
}
