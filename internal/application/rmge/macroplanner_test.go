package rmge

import (
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseProfile() domain.UserProfile {
	return domain.UserProfile{
		AgeRange:      "30-34",
		HeightCM:      165,
		WeightKG:      70,
		ActivityLevel: domain.ActivityModerate,
		WeightGoal:    domain.GoalMaintain,
	}
}

func TestMacroPlanner_Derive_SameDailyCaloriesKetoVsBalanced(t *testing.T) {
	// Universal property: keto and balanced distributions target the same
	// total daily calories, only the macro split changes.
	planner := NewMacroPlanner()
	profile := baseProfile()

	balanced := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3, IsKeto: false})
	keto := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3, IsKeto: true})

	require.Equal(t, balanced.DailyCalories, keto.DailyCalories)
	assert.NotEqual(t, balanced.PerMealCarbsG, keto.PerMealCarbsG)
	assert.Greater(t, keto.PerMealFatG, balanced.PerMealFatG)
}

func TestMacroPlanner_Derive_WeightGoalAdjustsTDEEBy500(t *testing.T) {
	planner := NewMacroPlanner()
	profile := baseProfile()

	maintain := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3})

	profile.WeightGoal = domain.GoalLose
	lose := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3})

	profile.WeightGoal = domain.GoalGain
	gain := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3})

	assert.Equal(t, maintain.TDEE-500, lose.DailyCalories)
	assert.Equal(t, maintain.TDEE+500, gain.DailyCalories)
}

func TestMacroPlanner_Derive_KetoCarbAllowanceOnlySetWhenKeto(t *testing.T) {
	planner := NewMacroPlanner()
	profile := baseProfile()

	balanced := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3, IsKeto: false})
	assert.Zero(t, balanced.KetoCarbAllowance)

	keto := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3, IsKeto: true})
	assert.Greater(t, keto.KetoCarbAllowance, 0.0)
}

func TestMacroPlanner_Derive_UnknownAgeRangeFallsBackToDefault(t *testing.T) {
	planner := NewMacroPlanner()
	profile := baseProfile()
	profile.AgeRange = "not-a-bucket"

	got := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3})

	profile.AgeRange = "30-34" // midpoint 32, close to defaultAge 30
	want := planner.Derive(profile, domain.PlanRequest{MealsPerDay: 3})

	// Both should be in the same ballpark since 30 and 32 are close; the
	// real assertion is that unknown buckets don't panic or zero out BMR.
	assert.Greater(t, got.BMR, 0.0)
	assert.InDelta(t, want.BMR, got.BMR, 15)
}
