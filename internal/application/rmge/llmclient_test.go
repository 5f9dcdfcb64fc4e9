package rmge

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransientUpstream = errors.New("temporary upstream failure")

func TestLLMClient_Generate_ReturnsPrimaryResultOnSuccess(t *testing.T) {
	primary := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return &outbound.GenerationResult{Text: "from primary"}, nil
	}}
	c := NewLLMClient(primary, nil, fastRetryConfig(), nil)

	got, err := c.Generate(context.Background(), "prompt", outbound.GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "from primary", got.Text)
}

func TestLLMClient_Generate_RetriesTransientErrorsThenSucceeds(t *testing.T) {
	calls := 0
	primary := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		calls++
		if calls < 2 {
			return nil, errTransientUpstream
		}
		return &outbound.GenerationResult{Text: "ok"}, nil
	}}
	c := NewLLMClient(primary, nil, fastRetryConfig(), nil)

	got, err := c.Generate(context.Background(), "prompt", outbound.GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "ok", got.Text)
	assert.Equal(t, 2, calls)
}

func TestLLMClient_Generate_NoFallbackConfiguredSurfacesPrimaryError(t *testing.T) {
	primary := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return nil, errTransientUpstream
	}}
	c := NewLLMClient(primary, nil, fastRetryConfig(), nil)

	_, err := c.Generate(context.Background(), "prompt", outbound.GenerationParams{})

	assert.Error(t, err)
}

func TestLLMClient_Generate_EscalatesToFallbackWhenPrimaryRetriesExhausted(t *testing.T) {
	primary := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return nil, errTransientUpstream
	}}
	fallback := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return &outbound.GenerationResult{Text: "from fallback"}, nil
	}}
	c := NewLLMClient(primary, fallback, fastRetryConfig(), nil)

	got, err := c.Generate(context.Background(), "prompt", outbound.GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "from fallback", got.Text)
}

func TestLLMClient_Generate_FallbackAlsoFailingSurfacesFallbackError(t *testing.T) {
	primary := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return nil, errTransientUpstream
	}}
	fallback := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return nil, errors.New("fallback also down")
	}}
	c := NewLLMClient(primary, fallback, fastRetryConfig(), nil)

	_, err := c.Generate(context.Background(), "prompt", outbound.GenerationParams{})

	assert.Error(t, err)
}

func TestLLMClient_Generate_NonRetryableErrorSkipsRetryButStillEscalates(t *testing.T) {
	calls := 0
	primary := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		calls++
		return nil, errors.New("bad request")
	}}
	fallback := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return &outbound.GenerationResult{Text: "from fallback"}, nil
	}}
	c := NewLLMClient(primary, fallback, fastRetryConfig(), nil)

	got, err := c.Generate(context.Background(), "prompt", outbound.GenerationParams{})

	require.NoError(t, err)
	assert.Equal(t, "from fallback", got.Text)
	assert.Equal(t, 1, calls)
}
