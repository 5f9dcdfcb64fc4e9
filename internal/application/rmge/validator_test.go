package rmge

import (
	"context"
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlanJSON = `{"days":[{"meals":[
	{"mealType":"breakfast","name":"Poha","ingredients":[{"item":"rice flakes","quantity":100,"unit":"g"}],
	 "macros":{"protein":10,"carbs":40,"fats":5},"calories":245,"gi":"Medium","prepTime":15,"tip":"add peanuts"}
]}]}`

func TestExtractBalancedJSON_FindsLargestBalancedObject(t *testing.T) {
	noisy := "Here is your plan:\n" + validPlanJSON + "\nEnjoy your meal!"
	got, ok := extractBalancedJSON(noisy)

	require.True(t, ok)
	assert.True(t, len(got) > 0)
	assert.Equal(t, byte('{'), got[0])
	assert.Equal(t, byte('}'), got[len(got)-1])
}

func TestExtractBalancedJSON_IgnoresBracesInsideStrings(t *testing.T) {
	s := `{"tip": "use a { wok } if you have one", "ok": true}`
	got, ok := extractBalancedJSON(s)

	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestExtractBalancedJSON_NoOpeningBraceFails(t *testing.T) {
	_, ok := extractBalancedJSON("no json here")
	assert.False(t, ok)
}

func TestExtractBalancedJSON_UnbalancedInputFails(t *testing.T) {
	_, ok := extractBalancedJSON(`{"days": [{"meals": []}`)
	assert.False(t, ok)
}

func TestValidator_ParseAndValidate_DirectParseSucceeds(t *testing.T) {
	v := NewValidator(nil)
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 1}
	targets := domain.MacroTargets{PerMealProteinG: 10, PerMealCarbsG: 40, PerMealFatG: 5, PerMealToleranceP: 0.1}

	plan, violations, err := v.ParseAndValidate(context.Background(), validPlanJSON, req, domain.UserProfile{}, targets)

	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Empty(t, violations)
}

func TestValidator_ParseAndValidate_RepairsWrappedJSON(t *testing.T) {
	v := NewValidator(nil)
	noisy := "Sure, here you go:\n" + validPlanJSON
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 1}
	targets := domain.MacroTargets{PerMealProteinG: 10, PerMealCarbsG: 40, PerMealFatG: 5, PerMealToleranceP: 0.1}

	plan, _, err := v.ParseAndValidate(context.Background(), noisy, req, domain.UserProfile{}, targets)

	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "Poha", plan.Days[0].Meals[0].Name)
}

func TestValidator_ParseAndValidate_UnparsableWithNoLLMReturnsParseError(t *testing.T) {
	v := NewValidator(nil)
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 1}

	_, _, err := v.ParseAndValidate(context.Background(), "not json at all", req, domain.UserProfile{}, domain.MacroTargets{})

	assert.Error(t, err)
}

func TestValidator_ParseAndValidate_FallsBackToLLMFixWhenRepairFails(t *testing.T) {
	llm := &fakeLLM{generate: func(ctx context.Context, prompt string, params outbound.GenerationParams) (*outbound.GenerationResult, error) {
		return &outbound.GenerationResult{Text: validPlanJSON}, nil
	}}
	v := NewValidator(NewLLMClient(llm, nil, fastRetryConfig(), nil))
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 1}
	targets := domain.MacroTargets{PerMealProteinG: 10, PerMealCarbsG: 40, PerMealFatG: 5, PerMealToleranceP: 0.1}

	plan, _, err := v.ParseAndValidate(context.Background(), "total garbage no braces", req, domain.UserProfile{}, targets)

	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "Poha", plan.Days[0].Meals[0].Name)
}

func TestValidateStructure_FlagsDayCountMismatch(t *testing.T) {
	plan := &domain.MealPlan{Days: []domain.Day{{}}}
	req := domain.PlanRequest{DurationDays: 2, MealsPerDay: 1}

	got := validateStructure(plan, req)

	require.Len(t, got, 1)
	assert.Equal(t, SeverityHard, got[0].Severity)
}

func TestValidateStructure_FlagsMealCountMismatchPerDay(t *testing.T) {
	plan := &domain.MealPlan{Days: []domain.Day{{Meals: []domain.Meal{{}}}}}
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 3}

	got := validateStructure(plan, req)

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].DayIndex)
}

func TestValidateMacros_CalorieMacroMismatchIsSoft(t *testing.T) {
	plan := &domain.MealPlan{Days: []domain.Day{{Meals: []domain.Meal{
		{Macros: domain.MealMacros{ProteinG: 10, CarbsG: 40, FatG: 5}, Calories: 1000},
	}}}}
	targets := domain.MacroTargets{PerMealProteinG: 10, PerMealCarbsG: 40, PerMealFatG: 5, PerMealToleranceP: 0.1}

	got := validateMacros(plan, domain.PlanRequest{MealsPerDay: 1}, targets)

	found := false
	for _, v := range got {
		if v.Reason == "calorie/macro mismatch" {
			found = true
			assert.Equal(t, SeveritySoft, v.Severity)
		}
	}
	assert.True(t, found)
}

func TestValidateMacros_KetoOverCarbAllowanceIsHard(t *testing.T) {
	plan := &domain.MealPlan{Days: []domain.Day{{Meals: []domain.Meal{
		{Macros: domain.MealMacros{ProteinG: 20, CarbsG: 50, FatG: 20, Calories: 0}},
	}}}}
	targets := domain.MacroTargets{PerMealProteinG: 20, PerMealCarbsG: 10, PerMealFatG: 20, PerMealToleranceP: 0.1, KetoCarbAllowance: 20}

	got := validateMacros(plan, domain.PlanRequest{MealsPerDay: 1, IsKeto: true}, targets)

	hasKetoViolation := false
	for _, v := range got {
		if v.Reason == "keto per-meal net carbs exceed allowance" {
			hasKetoViolation = true
		}
	}
	assert.True(t, hasKetoViolation)
}

func TestValidateDietRules_VeganBanTokenInIngredientsIsHard(t *testing.T) {
	plan := &domain.MealPlan{Days: []domain.Day{{Meals: []domain.Meal{
		{Name: "Scramble", Ingredients: []domain.Ingredient{{Item: "egg"}}},
	}}}}

	got := validateDietRules(plan, domain.PlanRequest{}, domain.UserProfile{DietType: domain.DietVegan})

	require.Len(t, got, 1)
	assert.Equal(t, SeverityHard, got[0].Severity)
	assert.Equal(t, "vegan ban violation", got[0].Reason)
}

func TestValidateDietRules_ForbiddenDishNameIsHard(t *testing.T) {
	plan := &domain.MealPlan{Days: []domain.Day{{Meals: []domain.Meal{
		{Name: "Mushroom Curry"},
	}}}}
	req := domain.PlanRequest{ForbiddenDish: map[string]struct{}{"mushroom curry": {}}}

	got := validateDietRules(plan, req, domain.UserProfile{})

	require.Len(t, got, 1)
	assert.Equal(t, "forbidden dish name", got[0].Reason)
}

func TestWithinPct_ZeroTargetRequiresZeroActual(t *testing.T) {
	assert.True(t, withinPct(0, 0, 0.1))
	assert.False(t, withinPct(5, 0, 0.1))
}

func TestSoftOrHard_WithinExtendedBandIsSoft(t *testing.T) {
	assert.Equal(t, SeveritySoft, softOrHard(55, 50, 0.05))
}

func TestSoftOrHard_FarBeyondBandIsHard(t *testing.T) {
	assert.Equal(t, SeverityHard, softOrHard(100, 50, 0.05))
}
