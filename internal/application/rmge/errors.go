package rmge

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/alchemorsel/v3/pkg/errors"
)

// errEmptyResponse marks an upstream call that returned zero results where
// at least one was expected; treated as non-retryable since retrying an
// empty-but-200 response will not change the outcome.
var errEmptyResponse = errors.New("upstream returned no results")

// transientHTTPStatus reports whether status is retryable: 429 and any 5xx.
func transientHTTPStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// classifyTransient is the shared Retry classifier for Embedder, VectorIndex,
// and LLMClient: network-ish errors, timeouts, and 429/5xx are retryable;
// context cancellation and explicit auth/4xx failures are not.
func classifyTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errEmptyResponse) {
		return false
	}

	var statusErr interface{ StatusCode() int }
	if errors.As(err, &statusErr) {
		return transientHTTPStatus(statusErr.StatusCode())
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection reset", "temporary", "429", "5xx", "unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func validationErr(details string) *apperrors.AppError {
	return apperrors.NewValidationError(details)
}

func embeddingErr(op string, cause error) *apperrors.AppError {
	return apperrors.NewEmbeddingError(op, cause)
}

func indexErr(op string, cause error) *apperrors.AppError {
	return apperrors.NewIndexError(op, cause)
}

func llmErr(op string, cause error) *apperrors.AppError {
	return apperrors.NewLLMError(op, cause)
}

func cancelledErr(stage string) *apperrors.AppError {
	return apperrors.NewCancelledError(stage)
}

func parseErr(details string) *apperrors.AppError {
	return apperrors.NewParseError(details)
}
