package rmge

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/alchemorsel/v3/pkg/errors"
)

// RetryConfig controls the exponential-backoff-with-jitter schedule shared
// by Embedder, VectorIndex, and LLMClient outbound calls.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig mirrors the SPEC_FULL.md §6 configuration defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
	}
}

// Classifier decides whether an error returned by an attempt is retryable.
// Network errors, 5xx, and 429 are retryable; auth failures and other 4xx
// are not.
type Classifier func(err error) bool

// Retry runs fn up to cfg.MaxRetries+1 times total, sleeping between
// attempts with exponential backoff jittered by ±25%. The sleep is
// cancellable via ctx: if ctx is done while waiting, Retry returns a
// Cancelled error immediately without a further attempt.
func Retry(ctx context.Context, cfg RetryConfig, classify Classifier, fn func(ctx context.Context) error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperrors.NewCancelledError("retry")
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if classify != nil && !classify(lastErr) {
			return lastErr
		}

		if attempt == cfg.MaxRetries {
			break
		}

		wait := jitter(delay)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.NewCancelledError("retry-backoff")
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}

// jitter returns d adjusted by a uniform random factor in [-25%, +25%].
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	spread := float64(d) * 0.25
	offset := (rand.Float64()*2 - 1) * spread
	result := time.Duration(float64(d) + offset)
	if result < 0 {
		return 0
	}
	return result
}
