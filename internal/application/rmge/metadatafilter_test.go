package rmge

import (
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/stretchr/testify/assert"
)

func TestTranslatePreferences_VegetarianAllowsVeganAndEggetarian(t *testing.T) {
	profile := domain.UserProfile{DietType: domain.DietVegetarian}
	spec := TranslatePreferences(profile, domain.PlanRequest{})

	assert.ElementsMatch(t, []domain.DietType{domain.DietVegetarian, domain.DietVegan, domain.DietEggetarian}, spec.DietType)
}

func TestTranslatePreferences_VeganIsExclusive(t *testing.T) {
	profile := domain.UserProfile{DietType: domain.DietVegan}
	spec := TranslatePreferences(profile, domain.PlanRequest{})

	assert.Equal(t, []domain.DietType{domain.DietVegan}, spec.DietType)
}

func TestTranslatePreferences_KetoForcesLowGIAndCarbCeiling(t *testing.T) {
	spec := TranslatePreferences(domain.UserProfile{}, domain.PlanRequest{IsKeto: true})

	assert.Equal(t, []domain.GILevel{domain.GILow}, spec.GI)
	assert.True(t, spec.HasMaxCarbs)
	assert.Equal(t, 20.0, spec.MaxCarbs)
}

func TestTranslatePreferences_StateDefaultsToAny(t *testing.T) {
	spec := TranslatePreferences(domain.UserProfile{}, domain.PlanRequest{})
	assert.Equal(t, "any", spec.State)
}

func TestMetadataFilter_Apply_FiltersByDietType(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", DietType: domain.DietVegan}},
		{Metadata: domain.Metadata{MealName: "b", DietType: domain.DietNonVegetarian}},
	}
	spec := FilterSpec{DietType: []domain.DietType{domain.DietVegan}, State: "any"}

	got := f.Apply(docs, spec)

	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Metadata.MealName)
}

func TestMetadataFilter_Apply_StateAnyMatchesEverything(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", State: "Punjab"}},
		{Metadata: domain.Metadata{MealName: "b", State: domain.AllStates}},
	}

	got := f.Apply(docs, FilterSpec{State: "any"})

	assert.Len(t, got, 2)
}

func TestMetadataFilter_Apply_SpecificStateAlsoAllowsAllStatesDocs(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", State: "Punjab"}},
		{Metadata: domain.Metadata{MealName: "b", State: domain.AllStates}},
		{Metadata: domain.Metadata{MealName: "c", State: "Kerala"}},
	}

	got := f.Apply(docs, FilterSpec{State: "Punjab"})

	assert.Len(t, got, 2)
}

func TestMetadataFilter_Apply_MaxPrepTimeExcludesUnparsedAsPass(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", PrepTimeMins: 45, PrepTimeParsed: true}},
		{Metadata: domain.Metadata{MealName: "b", PrepTimeRaw: "unknown", PrepTimeParsed: false}},
	}

	got := f.Apply(docs, FilterSpec{State: "any", MaxPrepTime: 30})

	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Metadata.MealName)
}

func TestMetadataFilter_Apply_KetoMaxCarbsUsesNetCarbs(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", Carbs: 30, Fiber: 15, HasFiber: true}}, // net 15
		{Metadata: domain.Metadata{MealName: "b", Carbs: 30}},                            // net 30
	}

	got := f.Apply(docs, FilterSpec{State: "any", HasMaxCarbs: true, MaxCarbs: 20})

	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Metadata.MealName)
}

func TestMetadataFilter_Apply_BudgetLevelExcludesOverBudget(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", BudgetMax: 50}},
		{Metadata: domain.Metadata{MealName: "b", BudgetMax: 150}},
	}

	got := f.Apply(docs, FilterSpec{State: "any", BudgetLevel: 100})

	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Metadata.MealName)
}

func TestMetadataFilter_Apply_MealTypeMustMatchExactly(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", MealType: domain.MealBreakfast}},
		{Metadata: domain.Metadata{MealName: "b", MealType: domain.MealDinner}},
	}

	got := f.Apply(docs, FilterSpec{State: "any", MealType: domain.MealBreakfast})

	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Metadata.MealName)
}

func TestMetadataFilter_Apply_TracksCumulativeStats(t *testing.T) {
	f := NewMetadataFilter()
	docs := []domain.Document{
		{Metadata: domain.Metadata{MealName: "a", DietType: domain.DietVegan}},
		{Metadata: domain.Metadata{MealName: "b", DietType: domain.DietNonVegetarian}},
	}

	f.Apply(docs, FilterSpec{DietType: []domain.DietType{domain.DietVegan}, State: "any"})
	f.Apply(docs, FilterSpec{DietType: []domain.DietType{domain.DietVegan}, State: "any"})

	stats := f.Stats()
	assert.Equal(t, int64(4), stats.DocumentsIn)
	assert.Equal(t, int64(2), stats.DocumentsOut)
}
