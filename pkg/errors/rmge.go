package errors

import "fmt"

// NewEmbeddingError wraps a failure from the embedding service after
// retries are exhausted or on a non-retryable upstream response.
func NewEmbeddingError(operation string, cause error) *AppError {
	return NewAppError(
		CodeEmbeddingError,
		"Embedding request failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewIndexError wraps a failure from the vector index adapter.
func NewIndexError(operation string, cause error) *AppError {
	return NewAppError(
		CodeIndexError,
		"Vector index request failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewLLMError wraps a failure from the LLM generation call.
func NewLLMError(operation string, cause error) *AppError {
	return NewAppError(
		CodeLLMError,
		"LLM request failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewParseError reports that the LLM output could not be interpreted even
// after the bounded repair pass. Callers recover internally via the
// fallback plan; this code should rarely escape the orchestrator.
func NewParseError(details string) *AppError {
	return NewAppError(CodeParseError, "Could not parse model output", details)
}

// NewCancelledError reports the request's context was cancelled or its
// deadline exceeded.
func NewCancelledError(stage string) *AppError {
	return NewAppError(CodeCancelled, "Request cancelled", fmt.Sprintf("cancelled during %s", stage))
}

// NewGenerationFailedError reports that both the repair loop and the
// deterministic fallback failed to produce a valid plan.
func NewGenerationFailedError(details string) *AppError {
	return NewAppError(CodeGenerationFailed, "Generation failed", details)
}
