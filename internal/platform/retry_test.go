package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("get: %w", context.Canceled), false},
		{"permanent", permanent(errors.New("bad json")), false},
		{"not found", &StatusError{Code: http.StatusNotFound}, false},
		{"unauthorized", &StatusError{Code: http.StatusUnauthorized}, false},
		{"rate limited", &StatusError{Code: http.StatusTooManyRequests}, true},
		{"server error", fmt.Errorf("wrapped: %w", &StatusError{Code: http.StatusServiceUnavailable}), true},
		{"transport", errors.New("connection reset by peer"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestStatusErrorIsNotFound(t *testing.T) {
	assert.ErrorIs(t, &StatusError{Code: 404, URL: "x"}, ErrNotFound)
	assert.NotErrorIs(t, &StatusError{Code: 500, URL: "x"}, ErrNotFound)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry(t.Context(), fastRetry, "test", func() error {
		calls++
		return &StatusError{Code: http.StatusInternalServerError}
	})
	assert.Error(t, err)
	assert.Equal(t, fastRetry.MaxRetries+1, calls)
}

func TestWithRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	err := withRetry(t.Context(), fastRetry, "test", func() error {
		calls++
		return permanent(errors.New("nope"))
	})
	assert.EqualError(t, err, "nope")
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}

	calls := 0
	err := withRetry(ctx, cfg, "test", func() error {
		calls++
		cancel()
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, backoffDelay(cfg, 0))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(cfg, 2))
	assert.Equal(t, time.Second, backoffDelay(cfg, 10))

	cfg.Jitter = true
	for range 20 {
		d := backoffDelay(cfg, 1)
		assert.InDelta(t, float64(200*time.Millisecond), float64(d), float64(20*time.Millisecond))
	}
}
