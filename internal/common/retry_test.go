package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	policy := NewRetryPolicy()

	// Retryable status codes
	assert.True(t, policy.ShouldRetry(0, 429, nil))
	assert.True(t, policy.ShouldRetry(0, 503, nil))
	assert.True(t, policy.ShouldRetry(1, 500, nil))

	// Client errors are not retryable
	assert.False(t, policy.ShouldRetry(0, 404, nil))
	assert.False(t, policy.ShouldRetry(0, 401, nil))

	// Attempts exhausted
	assert.False(t, policy.ShouldRetry(3, 503, nil))

	// Context deadline is retryable
	assert.True(t, policy.ShouldRetry(0, 0, context.DeadlineExceeded))
}

func TestRetryPolicy_CalculateBackoff(t *testing.T) {
	policy := NewRetryPolicy()

	for attempt := 0; attempt < 5; attempt++ {
		backoff := policy.CalculateBackoff(attempt)
		// Jitter is ±25%, cap at MaxBackoff plus jitter headroom
		assert.Greater(t, backoff, time.Duration(0))
		assert.LessOrEqual(t, backoff, policy.MaxBackoff+policy.MaxBackoff/4)
	}
}

func TestRetryPolicy_ExecuteWithRetry_SucceedsAfterFailure(t *testing.T) {
	policy := NewRetryPolicy()
	policy.InitialBackoff = time.Millisecond
	policy.MaxBackoff = 5 * time.Millisecond

	attempts := 0
	status, err := policy.ExecuteWithRetry(context.Background(), nil, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 503, errors.New("service unavailable")
		}
		return 200, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicy_ExecuteWithRetry_NonRetryableFailsFast(t *testing.T) {
	policy := NewRetryPolicy()
	policy.InitialBackoff = time.Millisecond

	attempts := 0
	status, err := policy.ExecuteWithRetry(context.Background(), nil, func() (int, error) {
		attempts++
		return 404, errors.New("not found")
	})

	assert.Error(t, err)
	assert.Equal(t, 404, status)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_ExecuteWithRetry_Exhausted(t *testing.T) {
	policy := NewRetryPolicy()
	policy.MaxAttempts = 2
	policy.InitialBackoff = time.Millisecond
	policy.MaxBackoff = 2 * time.Millisecond

	attempts := 0
	_, err := policy.ExecuteWithRetry(context.Background(), nil, func() (int, error) {
		attempts++
		return 503, errors.New("still down")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryPolicy_ExecuteWithRetry_ContextCancelled(t *testing.T) {
	policy := NewRetryPolicy()
	policy.InitialBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := policy.ExecuteWithRetry(ctx, nil, func() (int, error) {
		return 503, errors.New("service unavailable")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
