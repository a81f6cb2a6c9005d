package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/apperr"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	users []*model.User
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = len(m.users) + 1
	m.users = append(m.users, user)
	return nil
}

type sentMail struct {
	to, username, code string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendConfirmationCode(_ context.Context, to, username, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, username, code})
	return nil
}

func newTestService() (*Service, *memUsers, *fakeMailer) {
	users := &memUsers{}
	mailer := &fakeMailer{}
	return NewService(users, mailer, NewCoder("secret"), NewTokens("secret", time.Hour)), users, mailer
}

func TestRequestCodeIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, users, mailer := newTestService()

	got, err := svc.RequestCode(ctx, SignupRequest{Email: "Alice@Example.com", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.RequestCode(ctx, SignupRequest{Email: "alice@example.com", Username: "alice"})
	require.NoError(t, err)

	require.Len(t, users.users, 1, "重复申请不会重复建号")
	assert.Equal(t, model.RoleUser, users.users[0].Role)
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, mailer.sent[0].code, mailer.sent[1].code)
	assert.Equal(t, "alice@example.com", mailer.sent[0].to)
}

func TestRequestCodeRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	_, err := svc.RequestCode(ctx, SignupRequest{Email: "alice@example.com", Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		req   SignupRequest
		kind  apperr.Kind
		field string
	}{
		{"保留用户名", SignupRequest{Email: "me@example.com", Username: "me"}, apperr.KindInvalidField, "username"},
		{"保留用户名大写", SignupRequest{Email: "me@example.com", Username: "ME"}, apperr.KindInvalidField, "username"},
		{"用户名非法字符", SignupRequest{Email: "x@example.com", Username: "bad name"}, apperr.KindInvalidField, "username"},
		{"邮箱格式错误", SignupRequest{Email: "nope", Username: "bob"}, apperr.KindInvalidField, "email"},
		{"缺少邮箱", SignupRequest{Username: "bob"}, apperr.KindInvalidField, "email"},
		{"用户名已绑定其他邮箱", SignupRequest{Email: "other@example.com", Username: "alice"}, apperr.KindConflict, "username"},
		{"邮箱已绑定其他用户名", SignupRequest{Email: "alice@example.com", Username: "alice2"}, apperr.KindConflict, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RequestCode(ctx, tt.req)
			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.field, e.Field)
		})
	}
}

func TestRequestCodeDeliveryFailure(t *testing.T) {
	svc, users, mailer := newTestService()
	mailer.err = errors.New("smtp down")

	_, err := svc.RequestCode(context.Background(), SignupRequest{Email: "bob@example.com", Username: "bob"})
	assert.ErrorIs(t, err, apperr.ErrDeliveryFailure)
	assert.Len(t, users.users, 1, "账户已创建，下次申请可重新发送")
}

func TestExchangeToken(t *testing.T) {
	ctx := context.Background()
	svc, _, mailer := newTestService()
	_, err := svc.RequestCode(ctx, SignupRequest{Email: "alice@example.com", Username: "alice"})
	require.NoError(t, err)
	code := mailer.sent[0].code

	_, err = svc.ExchangeToken(ctx, TokenRequest{Username: "nobody", ConfirmationCode: code})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}
	_, err = svc.ExchangeToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: wrong})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredential)

	_, err = svc.ExchangeToken(ctx, TokenRequest{Username: "alice"})
	assert.ErrorIs(t, err, apperr.ErrInvalidField)

	resp, err := svc.ExchangeToken(ctx, TokenRequest{Username: "alice", ConfirmationCode: code})
	require.NoError(t, err)
	p, err := svc.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, model.RoleUser, p.Role)

	// 也可以用邮箱登录
	resp, err = svc.ExchangeToken(ctx, TokenRequest{Username: "ALICE@example.com", ConfirmationCode: code})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}
