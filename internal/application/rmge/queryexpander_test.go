package rmge

import (
	"context"
	"errors"
	"testing"

	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	generate func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
	return f.generate(ctx, prompt, params)
}

func TestQueryExpander_Expand_OriginalIsAlwaysFirst(t *testing.T) {
	// Universal property: the original query is always variant zero.
	e := NewQueryExpander(nil, fastRetryConfig(), nil)

	got := e.Expand(context.Background(), "paneer curry", 3, false)

	require.NotEmpty(t, got)
	assert.Equal(t, "paneer curry", got[0])
}

func TestQueryExpander_Expand_VariantsAreDistinct(t *testing.T) {
	e := NewQueryExpander(nil, fastRetryConfig(), nil)

	got := e.Expand(context.Background(), "high protein dal", 4, false)

	seen := make(map[string]struct{})
	for _, v := range got {
		lower := v
		_, dup := seen[lower]
		assert.False(t, dup, "duplicate variant: %s", v)
		seen[lower] = struct{}{}
	}
}

func TestQueryExpander_Expand_CapsAtMaxVariations(t *testing.T) {
	e := NewQueryExpander(nil, fastRetryConfig(), nil)

	got := e.Expand(context.Background(), "dal roti biryani high protein low carb", 2, false)

	assert.LessOrEqual(t, len(got), 2)
}

func TestQueryExpander_Expand_RuleBasedAlwaysProducesAtLeastRecipeVariant(t *testing.T) {
	e := NewQueryExpander(nil, fastRetryConfig(), nil)

	got := e.Expand(context.Background(), "zzz", 3, false)

	assert.NotEmpty(t, got)
	assert.Equal(t, "zzz", got[0])
	assert.Contains(t, got, "zzz recipe")
}

func TestQueryExpander_Expand_UsesLLMVariantsWhenAvailable(t *testing.T) {
	llm := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return &outbound.GenerationResult{Text: "spicy paneer curry\ncreamy paneer curry"}, nil
	}}
	e := NewQueryExpander(llm, fastRetryConfig(), nil)

	got := e.Expand(context.Background(), "paneer curry", 3, true)

	assert.Contains(t, got, "spicy paneer curry")
}

func TestQueryExpander_Expand_LLMErrorFallsBackToRuleBased(t *testing.T) {
	llm := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return nil, errors.New("upstream down")
	}}
	e := NewQueryExpander(llm, fastRetryConfig(), nil)

	got := e.Expand(context.Background(), "paneer curry", 3, true)

	require.NotEmpty(t, got)
	assert.Equal(t, "paneer curry", got[0])
	assert.Greater(t, len(got), 1)
}

func TestQueryExpander_Expand_CachesRepeatedCalls(t *testing.T) {
	calls := 0
	llm := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		calls++
		return &outbound.GenerationResult{Text: "variant one"}, nil
	}}
	e := NewQueryExpander(llm, fastRetryConfig(), nil)

	first := e.Expand(context.Background(), "paneer curry", 3, true)
	second := e.Expand(context.Background(), "paneer curry", 3, true)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestRuleBasedVariants_IndianDishTokenAddsIndianPrefixVariant(t *testing.T) {
	got := ruleBasedVariants("paneer tikka")
	assert.Contains(t, got, "indian paneer tikka")
}

func TestRuleBasedVariants_RegionalSynonymSubstitution(t *testing.T) {
	got := ruleBasedVariants("dal fry")
	assert.Contains(t, got, "daal fry")
	assert.Contains(t, got, "lentil fry")
}

func TestRuleBasedVariants_HighProteinHyphenates(t *testing.T) {
	got := ruleBasedVariants("high protein breakfast")
	assert.Contains(t, got, "high-protein breakfast")
}

func TestRuleBasedVariants_LowCarbBecomesKeto(t *testing.T) {
	got := ruleBasedVariants("low carb dinner")
	assert.Contains(t, got, "keto dinner")
}

func TestAppendDistinct_RespectsMaxAndCaseInsensitiveDedup(t *testing.T) {
	existing := []string{"Paneer Curry"}
	candidates := []string{"paneer curry", "Dal Fry", "Roti"}

	got := appendDistinct(existing, candidates, 2)

	assert.Len(t, got, 2)
	assert.Equal(t, "Paneer Curry", got[0])
	assert.Equal(t, "Dal Fry", got[1])
}
