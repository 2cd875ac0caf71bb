package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMetadata(t *testing.T) {
	tests := []struct {
		kind      Kind
		code      string
		status    int
		retryable bool
	}{
		{KindValidation, "VALIDATION_ERROR", http.StatusBadRequest, false},
		{KindUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, false},
		{KindNotFound, "NOT_FOUND", http.StatusNotFound, false},
		{KindInsufficientBalance, "INSUFFICIENT_BALANCE", http.StatusPaymentRequired, false},
		{KindRateLimited, "RATE_LIMITED", http.StatusTooManyRequests, true},
		{KindUpstream, "UPSTREAM_UNAVAILABLE", http.StatusBadGateway, true},
		{KindInternal, "INTERNAL", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.String())
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
			assert.Equal(t, tt.retryable, tt.kind.Retryable())
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("load checkout: %w", NotFound("profile"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Upstream("identity provider", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "identity provider is unavailable")
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	appErr := As(errors.New("boom"))
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "internal server error", appErr.Message)

	v := Validation("amount", "must be positive")
	assert.Same(t, v, As(fmt.Errorf("wrapped: %w", v)))
}
