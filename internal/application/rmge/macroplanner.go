package rmge

import (
	"math"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
)

// MacroPlanner is pure arithmetic: BMR/TDEE/daily-calorie target and
// per-meal macro targets/tolerance bands, per SPEC_FULL.md §4.7.
type MacroPlanner struct{}

// NewMacroPlanner returns a stateless MacroPlanner.
func NewMacroPlanner() *MacroPlanner {
	return &MacroPlanner{}
}

var ageMidpoints = map[string]float64{
	"18-24": 21,
	"25-29": 27,
	"30-34": 32,
	"35-39": 37,
	"40-45": 42.5,
	"56+":   60,
}

const defaultAge = 30

func ageMidpoint(ageRange string) float64 {
	if v, ok := ageMidpoints[ageRange]; ok {
		return v
	}
	return defaultAge
}

var activityMultipliers = map[domain.ActivityLevel]float64{
	domain.ActivitySedentary: 1.2,
	domain.ActivityLight:     1.375,
	domain.ActivityModerate:  1.465,
	domain.ActivityVery:      1.55,
}

// macroDistribution is the {carbs, protein, fat} percentage split of daily
// calories for a diet mode.
type macroDistribution struct {
	carbsPct   float64
	proteinPct float64
	fatPct     float64
}

func distributionFor(isKeto bool) macroDistribution {
	if isKeto {
		return macroDistribution{carbsPct: 0.07, proteinPct: 0.30, fatPct: 0.63}
	}
	return macroDistribution{carbsPct: 0.35, proteinPct: 0.35, fatPct: 0.30}
}

// Derive computes the full MacroTargets for a request, per SPEC_FULL.md §4.7.
func (p *MacroPlanner) Derive(profile domain.UserProfile, req domain.PlanRequest) domain.MacroTargets {
	age := ageMidpoint(profile.AgeRange)
	bmr := 10*profile.WeightKG + 6.25*profile.HeightCM - 5*age - 161

	multiplier, ok := activityMultipliers[profile.ActivityLevel]
	if !ok {
		multiplier = activityMultipliers[domain.ActivitySedentary]
	}
	tdee := math.Round(bmr * multiplier)

	dailyCalories := tdee
	switch profile.WeightGoal {
	case domain.GoalLose:
		dailyCalories = tdee - 500
	case domain.GoalGain:
		dailyCalories = tdee + 500
	}

	heightM := profile.HeightCM / 100
	var bmi float64
	if heightM > 0 {
		bmi = math.Round((profile.WeightKG/(heightM*heightM))*10) / 10
	}

	dist := distributionFor(req.IsKeto)
	carbsG := dailyCalories * dist.carbsPct / 4
	proteinG := dailyCalories * dist.proteinPct / 4
	fatG := dailyCalories * dist.fatPct / 9

	mealsPerDay := req.MealsPerDay
	if mealsPerDay <= 0 {
		mealsPerDay = 3
	}

	perMealCalories := math.Round(dailyCalories / float64(mealsPerDay))
	perMealCarbs := math.Round(carbsG / float64(mealsPerDay))
	perMealProtein := math.Round(proteinG / float64(mealsPerDay))
	perMealFat := math.Round(fatG / float64(mealsPerDay))

	var ketoAllowance float64
	if req.IsKeto {
		ketoAllowance = carbsG
	}

	return domain.MacroTargets{
		BMR:               bmr,
		TDEE:              tdee,
		DailyCalories:     dailyCalories,
		BMI:               bmi,
		PerMealCalories:   perMealCalories,
		PerMealCarbsG:     perMealCarbs,
		PerMealProteinG:   perMealProtein,
		PerMealFatG:       perMealFat,
		PerMealToleranceP: 0.03,
		DailyCarbTolG:     2,
		DailyProteinTolG:  5,
		DailyFatTolG:      5,
		KetoCarbAllowance: ketoAllowance,
	}
}
