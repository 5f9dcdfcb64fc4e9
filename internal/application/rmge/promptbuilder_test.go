package rmge

import (
	"strings"
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/stretchr/testify/assert"
)

func TestBuildForbiddenList_VeganAddsAnimalProducts(t *testing.T) {
	got := BuildForbiddenList(domain.PlanRequest{}, domain.UserProfile{DietType: domain.DietVegan})
	assert.Contains(t, got, "paneer")
	assert.Contains(t, got, "egg")
}

func TestBuildForbiddenList_JainAddsRootVegetables(t *testing.T) {
	got := BuildForbiddenList(domain.PlanRequest{}, domain.UserProfile{DietType: domain.DietJain})
	assert.Contains(t, got, "onion")
	assert.Contains(t, got, "potato")
}

func TestBuildForbiddenList_KetoAddsHighCarbStaples(t *testing.T) {
	got := BuildForbiddenList(domain.PlanRequest{IsKeto: true}, domain.UserProfile{})
	assert.Contains(t, got, "rice")
	assert.Contains(t, got, "bread")
}

func TestBuildForbiddenList_MergesUserAllergiesAndExplicitForbiddenDishes(t *testing.T) {
	got := BuildForbiddenList(
		domain.PlanRequest{ForbiddenDish: map[string]struct{}{"mushroom": {}}},
		domain.UserProfile{Allergies: map[string]struct{}{"peanut": {}}},
	)
	assert.Contains(t, got, "mushroom")
	assert.Contains(t, got, "peanut")
}

func TestBuildForbiddenList_DeduplicatesOverlappingEntries(t *testing.T) {
	got := BuildForbiddenList(
		domain.PlanRequest{IsKeto: true, ForbiddenDish: map[string]struct{}{"rice": {}}},
		domain.UserProfile{},
	)
	count := 0
	for _, v := range got {
		if v == "rice" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPromptBuilder_Assemble_PutsForbiddenListBeforeConstraints(t *testing.T) {
	b := NewPromptBuilder()
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 3, IsKeto: true}
	profile := domain.UserProfile{DietType: domain.DietVegan}
	targets := domain.MacroTargets{DailyCalories: 1800}

	prompt := b.Assemble(req, profile, targets, nil)

	forbiddenIdx := strings.Index(prompt, "FORBIDDEN")
	constraintsIdx := strings.Index(prompt, "Hard constraints:")
	assert.Greater(t, forbiddenIdx, -1)
	assert.Greater(t, constraintsIdx, -1)
	assert.Less(t, forbiddenIdx, constraintsIdx)
}

func TestPromptBuilder_Assemble_OmitsForbiddenSectionWhenEmpty(t *testing.T) {
	b := NewPromptBuilder()
	req := domain.PlanRequest{DurationDays: 1, MealsPerDay: 2}
	profile := domain.UserProfile{}
	targets := domain.MacroTargets{}

	prompt := b.Assemble(req, profile, targets, nil)

	assert.NotContains(t, prompt, "FORBIDDEN")
}

func TestPromptBuilder_Assemble_IncludesDocExcerptsAndOutputSchema(t *testing.T) {
	b := NewPromptBuilder()
	docs := []domain.ScoredDoc{
		{Document: domain.Document{Content: "simple paneer recipe", Metadata: domain.Metadata{MealName: "Paneer Tikka", State: "Punjab"}}},
	}

	prompt := b.Assemble(domain.PlanRequest{DurationDays: 1, MealsPerDay: 3}, domain.UserProfile{}, domain.MacroTargets{}, docs)

	assert.Contains(t, prompt, "Paneer Tikka")
	assert.Contains(t, prompt, "Output schema")
}

func TestTrimToTokenBudget_CapsAtMaxDocs(t *testing.T) {
	docs := make([]domain.ScoredDoc, 30)
	for i := range docs {
		docs[i] = domain.ScoredDoc{Document: domain.Document{Content: "short"}}
	}

	got, truncated := trimToTokenBudget(docs, maxExcerptDocs)

	assert.Len(t, got, maxExcerptDocs)
	assert.True(t, truncated)
}

func TestTrimToTokenBudget_TruncatesFromLeastRankedEndWhenOverBudget(t *testing.T) {
	big := strings.Repeat("x", promptTokenBudget*approxTokenPerCh)
	docs := []domain.ScoredDoc{
		{Document: domain.Document{Content: "first"}},
		{Document: domain.Document{Content: big}},
	}

	got, truncated := trimToTokenBudget(docs, maxExcerptDocs)

	assert.True(t, truncated)
	assert.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Document.Content)
}

func TestShortIngredientCue_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := shortIngredientCue(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 83)
}
