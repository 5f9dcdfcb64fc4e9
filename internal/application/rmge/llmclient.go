package rmge

import (
	"context"

	"github.com/alchemorsel/v3/internal/ports/outbound"
	"go.uber.org/zap"
)

// LLMClient wraps a chat-completion call with Retry and an optional
// fallback adapter, per SPEC_FULL.md §4.9 and the supplemented provider
// fallback chain in §11 (adapted from internal/application/ai.AIService).
type LLMClient struct {
	primary  outbound.LLMGenerationService
	fallback outbound.LLMGenerationService // may be nil
	retry    RetryConfig
	logger   *zap.Logger
}

// NewLLMClient wires a primary generation adapter with an optional fallback.
func NewLLMClient(primary, fallback outbound.LLMGenerationService, retry RetryConfig, logger *zap.Logger) *LLMClient {
	return &LLMClient{primary: primary, fallback: fallback, retry: retry, logger: logger}
}

// Generate calls the primary adapter with Retry; if the retry budget is
// exhausted and a fallback adapter is configured, it escalates to the
// fallback once before surfacing LLMError.
func (c *LLMClient) Generate(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
	var result *outbound.GenerationResult
	err := Retry(ctx, c.retry, classifyTransient, func(ctx context.Context) error {
		r, err := c.primary.Generate(ctx, prompt, params)
		if err != nil {
			return llmErr("generate", err)
		}
		result = r
		return nil
	})
	if err == nil {
		return result, nil
	}

	if c.fallback == nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Warn("primary LLM exhausted retries, falling back", zap.Error(err))
	}

	fallbackResult, fbErr := c.fallback.Generate(ctx, prompt, params)
	if fbErr != nil {
		return nil, llmErr("generate (fallback)", fbErr)
	}
	return fallbackResult, nil
}
