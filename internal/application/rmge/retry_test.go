package rmge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestRetry_SucceedsWithoutRetryingOnFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsBudgetAndReturnsLastError(t *testing.T) {
	calls := 0
	wantErr := errors.New("still failing")
	err := Retry(context.Background(), fastRetryConfig(), func(error) bool { return true }, func(ctx context.Context) error {
		calls++
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 4, calls) // MaxRetries=3 -> 4 total attempts
}

func TestRetry_NonRetryableErrorStopsImmediately(t *testing.T) {
	calls := 0
	wantErr := errors.New("bad request")
	err := Retry(context.Background(), fastRetryConfig(), func(error) bool { return false }, func(ctx context.Context) error {
		calls++
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CancelledContextStopsBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, fastRetryConfig(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestJitter_StaysWithinQuarterSpread(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := jitter(base)
		assert.GreaterOrEqual(t, got, 74*time.Millisecond)
		assert.LessOrEqual(t, got, 126*time.Millisecond)
	}
}

func TestJitter_ZeroDurationUnaffected(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitter(0))
}
