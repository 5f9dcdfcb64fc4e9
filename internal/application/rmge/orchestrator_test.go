package rmge

import (
	"context"
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const orchestratorTestPlanJSON = `{"days":[
	{"meals":[
		{"mealType":"breakfast","name":"Poha","ingredients":[{"item":"rice flakes","quantity":100,"unit":"g"}],
		 "macros":{"protein":20,"carbs":40,"fats":10},"calories":340,"gi":"Medium","prepTime":15,"tip":"add peanuts"},
		{"mealType":"lunch","name":"Dal Chawal","ingredients":[{"item":"lentils","quantity":150,"unit":"g"}],
		 "macros":{"protein":20,"carbs":40,"fats":10},"calories":340,"gi":"Medium","prepTime":25,"tip":"pressure cook"},
		{"mealType":"dinner","name":"Paneer Sabzi","ingredients":[{"item":"paneer","quantity":120,"unit":"g"}],
		 "macros":{"protein":20,"carbs":40,"fats":10},"calories":340,"gi":"Low","prepTime":20,"tip":"use less oil"}
	]}
]}`

func newTestOrchestrator(t *testing.T, llmText string, indexDocs []outbound.VectorIndexMatch) *Orchestrator {
	t.Helper()

	quotaRepo := newFakeQuotaRepo()
	quota := NewQuotaGate(quotaRepo, DefaultQuotaConfig(), zap.NewNop())

	embedSvc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0.1, 0.2, 0.3}
		}
		return out, nil
	}}
	embedder := NewEmbedder(embedSvc, fastRetryConfig(), DefaultEmbeddingTuning(), zap.NewNop())

	indexSvc := &fakeVectorIndexService{searchResult: indexDocs}
	index := NewVectorIndex(indexSvc, fastRetryConfig(), zap.NewNop())

	llm := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return &outbound.GenerationResult{Text: llmText}, nil
	}}
	llmClient := NewLLMClient(llm, nil, fastRetryConfig(), zap.NewNop())

	return NewOrchestrator(
		quota,
		NewMacroPlanner(),
		NewQueryExpander(nil, fastRetryConfig(), zap.NewNop()),
		embedder,
		index,
		NewMetadataFilter(),
		NewDeduplicator(),
		NewReRanker(),
		NewPromptBuilder(),
		llmClient,
		NewValidator(llmClient),
		NewMetrics(prometheus.NewRegistry()),
		NewCostTracker(zap.NewNop()),
		DefaultRetrievalConfig(),
		DefaultLLMParams(),
		zap.NewNop(),
	)
}

func baseRequest() domain.PlanRequest {
	return domain.PlanRequest{
		RequestID:    "req-1",
		Profile:      domain.UserProfile{UserID: "u1", AgeRange: "30-34", HeightCM: 165, WeightKG: 70, ActivityLevel: domain.ActivityModerate, WeightGoal: domain.GoalMaintain},
		MealsPerDay:  3,
		DurationDays: 1,
		IntentQuery:  "balanced indian meals",
	}
}

func sampleIndexMatches() []outbound.VectorIndexMatch {
	return []outbound.VectorIndexMatch{
		{Document: domain.Document{ID: "d1", Content: "poha recipe", Metadata: domain.Metadata{MealName: "Poha", State: domain.AllStates, MealType: domain.MealBreakfast}}, Score: 0.9},
		{Document: domain.Document{ID: "d2", Content: "dal chawal recipe", Metadata: domain.Metadata{MealName: "Dal Chawal", State: domain.AllStates, MealType: domain.MealLunch}}, Score: 0.8},
		{Document: domain.Document{ID: "d3", Content: "paneer sabzi recipe", Metadata: domain.Metadata{MealName: "Paneer Sabzi", State: domain.AllStates, MealType: domain.MealDinner}}, Score: 0.85},
	}
}

func TestOrchestrator_GeneratePlan_HappyPathReturnsValidatedPlan(t *testing.T) {
	// Scenario S1: a clean LLM response that already satisfies structure,
	// macros, and diet rules requires no repair or fallback.
	o := newTestOrchestrator(t, orchestratorTestPlanJSON, sampleIndexMatches())
	req := baseRequest()

	plan, err := o.GeneratePlan(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	assert.Len(t, plan.Days[0].Meals, 3)
	assert.False(t, plan.Fallback)
}

func TestOrchestrator_GeneratePlan_IncrementsQuotaOnSuccess(t *testing.T) {
	o := newTestOrchestrator(t, orchestratorTestPlanJSON, sampleIndexMatches())
	req := baseRequest()

	_, err := o.GeneratePlan(context.Background(), req)
	require.NoError(t, err)

	decision, err := o.quota.Check(context.Background(), req.Profile.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Count)
}

func TestOrchestrator_GeneratePlan_QuotaExceededStopsBeforeRetrieval(t *testing.T) {
	// Scenario S3/S4: a user already at their plan limit never reaches the
	// retrieval/LLM stages.
	o := newTestOrchestrator(t, orchestratorTestPlanJSON, sampleIndexMatches())
	req := baseRequest()

	err := o.quota.repo.SaveQuota(context.Background(), &domain.QuotaState{UserID: req.Profile.UserID, Plan: domain.PlanFree, TotalCount: 1})
	require.NoError(t, err)

	_, genErr := o.GeneratePlan(context.Background(), req)

	assert.Error(t, genErr)
}

func TestOrchestrator_GeneratePlan_UnrepairableOutputFallsBackToTemplatePlan(t *testing.T) {
	// A structurally wrong LLM response (wrong meal count) with no way to
	// patch it in one round falls back to the deterministic template plan.
	o := newTestOrchestrator(t, `{"days":[{"meals":[]}]}`, sampleIndexMatches())
	req := baseRequest()

	plan, err := o.GeneratePlan(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, plan.Fallback)
	assert.NotEmpty(t, plan.Days[0].Meals)
}

func TestOrchestrator_GeneratePlan_TracksLLMCostOnSuccess(t *testing.T) {
	o := newTestOrchestrator(t, orchestratorTestPlanJSON, sampleIndexMatches())
	req := baseRequest()

	_, err := o.GeneratePlan(context.Background(), req)
	require.NoError(t, err)

	spend, ok := o.costs.UserSpend(req.Profile.UserID)
	require.True(t, ok)
	assert.Greater(t, spend.RequestCount, int64(0))
}

func TestOrchestrator_GeneratePlan_RecordsStageDurationsInMetadata(t *testing.T) {
	o := newTestOrchestrator(t, orchestratorTestPlanJSON, sampleIndexMatches())
	req := baseRequest()

	plan, err := o.GeneratePlan(context.Background(), req)

	require.NoError(t, err)
	assert.Contains(t, plan.Metadata.StageDurationsMS, "retrieve")
	assert.Contains(t, plan.Metadata.StageDurationsMS, "llm_generate")
}

func TestBuildBaseQuery_PrefersExplicitIntentQuery(t *testing.T) {
	req := domain.PlanRequest{IntentQuery: "high protein snacks", Profile: domain.UserProfile{DietType: domain.DietVegan}}
	assert.Equal(t, "high protein snacks", buildBaseQuery(req))
}

func TestBuildBaseQuery_FallsBackToDietAndMealFocus(t *testing.T) {
	req := domain.PlanRequest{Profile: domain.UserProfile{DietType: domain.DietVegan}, MealTypeFocus: domain.MealBreakfast}
	assert.Equal(t, "vegan breakfast", buildBaseQuery(req))
}

func TestHasHard_DetectsAnyHardViolation(t *testing.T) {
	assert.True(t, hasHard([]Violation{{Severity: SeveritySoft}, {Severity: SeverityHard}}))
	assert.False(t, hasHard([]Violation{{Severity: SeveritySoft}}))
}

func TestMealTypeSlots_CapsToRequestedMealsPerDay(t *testing.T) {
	assert.Len(t, mealTypeSlots(2), 2)
	assert.Len(t, mealTypeSlots(4), 4)
}
