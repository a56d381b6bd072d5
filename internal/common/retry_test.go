package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadlingo/cadlingo/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return nil
		}, fastRetry(3))
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return &RetryableError{Err: ErrProviderTransient, Retryable: true}
			}
			return nil
		}, fastRetry(5))
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-retryable fails fast", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			return &RetryableError{Err: ErrProviderPersistent, Retryable: false}
		}, fastRetry(5))
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("budget exhaustion wraps ErrMaxRetries", func(t *testing.T) {
		err := WithRetry(ctx, func() error {
			return &RetryableError{Err: ErrProviderTransient, Retryable: true}
		}, fastRetry(2))
		assert.ErrorIs(t, err, ErrMaxRetries)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := WithRetry(cancelCtx, func() error {
			calls++
			cancel()
			return &RetryableError{Err: ErrProviderTransient, Retryable: true}
		}, fastRetry(5))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrProviderTransient))
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(ErrProviderPersistent))
	assert.False(t, IsRetryable(errors.New("arbitrary")))

	// Wrapped sentinels keep their retryability.
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
}
