package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidField, http.StatusBadRequest},
		{KindInvalidCredential, http.StatusBadRequest},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindDeliveryFailure, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Conflict("username", "taken"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestUnauthenticatedAndForbiddenAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(Unauthenticated("x"), ErrForbidden))
	assert.NotEqual(t, ErrUnauthenticated.HTTPStatus(), ErrForbidden.HTTPStatus())
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, KindInternal, KindOf(cause))
}
