package rmge

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
)

// rawPlan/rawDay/rawMeal mirror the output schema given to the LLM in
// PromptBuilder.Assemble.
type rawPlan struct {
	Days []rawDay `json:"days"`
}

type rawDay struct {
	Meals []rawMeal `json:"meals"`
}

type rawMeal struct {
	MealType    string          `json:"mealType"`
	Name        string          `json:"name"`
	Ingredients []rawIngredient `json:"ingredients"`
	Macros      rawMacros       `json:"macros"`
	Calories    float64         `json:"calories"`
	GI          string          `json:"gi"`
	PrepTime    int             `json:"prepTime"`
	Tip         string          `json:"tip"`
}

type rawIngredient struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type rawMacros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
	Fiber   float64 `json:"fiber"`
}

// ViolationSeverity classifies a validation failure per SPEC_FULL.md §4.9.
type ViolationSeverity string

const (
	SeveritySoft ViolationSeverity = "soft"
	SeverityHard ViolationSeverity = "hard"
)

// Violation is one macro/structural/diet-rule failure found during validation.
type Violation struct {
	Severity ViolationSeverity
	DayIndex int
	MealIdx  int
	Reason   string
}

var ketoGrainTokens = []string{"rice", "roti", "wheat", "bread", "potato", "corn"}
var veganBanTokens = []string{"milk", "paneer", "curd", "egg", "chicken", "fish", "mutton", "meat", "cheese"}
var jainBanTokens = []string{"onion", "garlic", "potato", "carrot", "beetroot", "radish"}

// Validator parses LLM output and validates it against the macro/diet rules
// in SPEC_FULL.md §4.9.
type Validator struct {
	llm *LLMClient
}

// NewValidator wires a Validator to the LLMClient used for the bounded
// "fix JSON" regeneration attempt.
func NewValidator(llm *LLMClient) *Validator {
	return &Validator{llm: llm}
}

// ParseAndValidate runs the three-step parse (direct, brace-repair,
// fix-JSON regeneration) and then structural + macro validation. It returns
// the parsed plan even when soft violations remain, so the orchestrator's
// one-round repair loop can act on Violations; a ParseError after all three
// parse attempts is returned as err.
func (v *Validator) ParseAndValidate(ctx context.Context, text string, req domain.PlanRequest, profile domain.UserProfile, targets domain.MacroTargets) (*domain.MealPlan, []Violation, error) {
	rp, err := v.parse(ctx, text)
	if err != nil {
		return nil, nil, err
	}

	plan := toDomainPlan(rp)
	violations := validateStructure(plan, req)
	violations = append(violations, validateMacros(plan, req, targets)...)
	violations = append(violations, validateDietRules(plan, req, profile)...)

	return plan, violations, nil
}

// parse implements the bounded repair pass described in SPEC_FULL.md §4.9:
// direct unmarshal, then largest-balanced-brace extraction, then (if an
// LLMClient is configured) a single terse "fix JSON" regeneration.
func (v *Validator) parse(ctx context.Context, text string) (*rawPlan, error) {
	if rp, err := unmarshalPlan(text); err == nil {
		return rp, nil
	}

	if repaired, ok := extractBalancedJSON(text); ok {
		if rp, err := unmarshalPlan(repaired); err == nil {
			return rp, nil
		}
	}

	if v.llm != nil {
		fixPrompt := "The following is malformed JSON. Return ONLY the corrected, valid JSON with no commentary:\n" + text
		res, err := v.llm.Generate(ctx, fixPrompt, outbound.GenerationParams{Temperature: 0, MaxTokens: 2000})
		if err == nil {
			if rp, uerr := unmarshalPlan(res.Text); uerr == nil {
				return rp, nil
			}
			if repaired, ok := extractBalancedJSON(res.Text); ok {
				if rp, uerr := unmarshalPlan(repaired); uerr == nil {
					return rp, nil
				}
			}
		}
	}

	return nil, parseErr("could not interpret model output after repair and regeneration")
}

// jsonUnmarshalMeal parses a single repaired-meal JSON blob, used by the
// orchestrator's one-round soft-violation repair loop.
func jsonUnmarshalMeal(text string, out *rawMeal) error {
	return json.Unmarshal([]byte(text), out)
}

// rawMealToDomain converts one repaired raw meal into its domain form.
func rawMealToDomain(m rawMeal) domain.Meal {
	ingredients := make([]domain.Ingredient, 0, len(m.Ingredients))
	for _, ing := range m.Ingredients {
		ingredients = append(ingredients, domain.Ingredient{Item: ing.Item, Quantity: ing.Quantity, Unit: ing.Unit})
	}
	return domain.Meal{
		MealType:    domain.MealType(strings.ToLower(m.MealType)),
		Name:        m.Name,
		Ingredients: ingredients,
		Macros: domain.MealMacros{
			ProteinG: m.Macros.Protein,
			CarbsG:   m.Macros.Carbs,
			FatG:     m.Macros.Fats,
			FiberG:   m.Macros.Fiber,
			HasFiber: m.Macros.Fiber > 0,
		},
		Calories:    m.Calories,
		GI:          domain.GILevel(m.GI),
		PrepTimeMin: m.PrepTime,
		Tip:         m.Tip,
	}
}

func unmarshalPlan(text string) (*rawPlan, error) {
	var rp rawPlan
	if err := json.Unmarshal([]byte(text), &rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

// extractBalancedJSON returns the largest balanced {...} substring of s.
func extractBalancedJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	bestEnd := -1
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				bestEnd = i
			}
		}
	}

	if bestEnd < 0 {
		return "", false
	}
	return s[start : bestEnd+1], true
}

func toDomainPlan(rp *rawPlan) *domain.MealPlan {
	plan := &domain.MealPlan{Days: make([]domain.Day, 0, len(rp.Days))}
	for _, d := range rp.Days {
		day := domain.Day{Meals: make([]domain.Meal, 0, len(d.Meals))}
		for _, m := range d.Meals {
			ingredients := make([]domain.Ingredient, 0, len(m.Ingredients))
			for _, ing := range m.Ingredients {
				ingredients = append(ingredients, domain.Ingredient{Item: ing.Item, Quantity: ing.Quantity, Unit: ing.Unit})
			}
			day.Meals = append(day.Meals, domain.Meal{
				MealType:    domain.MealType(strings.ToLower(m.MealType)),
				Name:        m.Name,
				Ingredients: ingredients,
				Macros: domain.MealMacros{
					ProteinG: m.Macros.Protein,
					CarbsG:   m.Macros.Carbs,
					FatG:     m.Macros.Fats,
					FiberG:   m.Macros.Fiber,
					HasFiber: m.Macros.Fiber > 0,
				},
				Calories:    m.Calories,
				GI:          domain.GILevel(m.GI),
				PrepTimeMin: m.PrepTime,
				Tip:         m.Tip,
			})
		}
		plan.Days = append(plan.Days, day)
	}
	return plan
}

func validateStructure(plan *domain.MealPlan, req domain.PlanRequest) []Violation {
	var v []Violation
	if len(plan.Days) != req.DurationDays {
		v = append(v, Violation{Severity: SeverityHard, Reason: "day count mismatch"})
	}
	for i, d := range plan.Days {
		if len(d.Meals) != req.MealsPerDay {
			v = append(v, Violation{Severity: SeverityHard, DayIndex: i, Reason: "meal count mismatch"})
		}
	}
	return v
}

func validateMacros(plan *domain.MealPlan, req domain.PlanRequest, targets domain.MacroTargets) []Violation {
	var v []Violation
	tol := targets.PerMealToleranceP

	for di, d := range plan.Days {
		var dayCarbs, dayProtein, dayFat, targetCarbs, targetProtein, targetFat float64

		for mi, m := range d.Meals {
			expectedCalories := 4*m.Macros.ProteinG + 4*m.Macros.CarbsG + 9*m.Macros.FatG
			if math.Abs(m.Calories-expectedCalories) > 2 {
				v = append(v, Violation{Severity: SeveritySoft, DayIndex: di, MealIdx: mi, Reason: "calorie/macro mismatch"})
			}

			if !withinPct(m.Macros.ProteinG, targets.PerMealProteinG, tol) {
				v = append(v, Violation{Severity: softOrHard(m.Macros.ProteinG, targets.PerMealProteinG, tol), DayIndex: di, MealIdx: mi, Reason: "protein out of tolerance"})
			}
			if !withinPct(m.Macros.CarbsG, targets.PerMealCarbsG, tol) {
				v = append(v, Violation{Severity: softOrHard(m.Macros.CarbsG, targets.PerMealCarbsG, tol), DayIndex: di, MealIdx: mi, Reason: "carbs out of tolerance"})
			}
			if !withinPct(m.Macros.FatG, targets.PerMealFatG, tol) {
				v = append(v, Violation{Severity: softOrHard(m.Macros.FatG, targets.PerMealFatG, tol), DayIndex: di, MealIdx: mi, Reason: "fat out of tolerance"})
			}

			if req.IsKeto {
				if m.Macros.NetCarbs() > targets.KetoCarbAllowance/float64(max(req.MealsPerDay, 1))*1.03 {
					v = append(v, Violation{Severity: SeverityHard, DayIndex: di, MealIdx: mi, Reason: "keto per-meal net carbs exceed allowance"})
				}
			}

			dayCarbs += m.Macros.CarbsG
			dayProtein += m.Macros.ProteinG
			dayFat += m.Macros.FatG
			targetCarbs += targets.PerMealCarbsG
			targetProtein += targets.PerMealProteinG
			targetFat += targets.PerMealFatG
		}

		if math.Abs(dayCarbs-targetCarbs) > targets.DailyCarbTolG {
			v = append(v, Violation{Severity: SeveritySoft, DayIndex: di, Reason: "daily carbs out of band"})
		}
		if math.Abs(dayProtein-targetProtein) > targets.DailyProteinTolG {
			v = append(v, Violation{Severity: SeveritySoft, DayIndex: di, Reason: "daily protein out of band"})
		}
		if math.Abs(dayFat-targetFat) > targets.DailyFatTolG {
			v = append(v, Violation{Severity: SeveritySoft, DayIndex: di, Reason: "daily fat out of band"})
		}
	}

	return v
}

func validateDietRules(plan *domain.MealPlan, req domain.PlanRequest, profile domain.UserProfile) []Violation {
	var v []Violation

	for di, d := range plan.Days {
		for mi, m := range d.Meals {
			if _, forbidden := req.ForbiddenDish[strings.ToLower(m.Name)]; forbidden {
				v = append(v, Violation{Severity: SeverityHard, DayIndex: di, MealIdx: mi, Reason: "forbidden dish name"})
			}

			ingredientText := strings.ToLower(ingredientNames(m))

			if req.IsKeto && containsAny(ingredientText, ketoGrainTokens) {
				v = append(v, Violation{Severity: SeverityHard, DayIndex: di, MealIdx: mi, Reason: "keto grain-ban violation"})
			}
			if profile.DietType == domain.DietVegan && containsAny(ingredientText, veganBanTokens) {
				v = append(v, Violation{Severity: SeverityHard, DayIndex: di, MealIdx: mi, Reason: "vegan ban violation"})
			}
			if profile.DietType == domain.DietJain && containsAny(ingredientText, jainBanTokens) {
				v = append(v, Violation{Severity: SeverityHard, DayIndex: di, MealIdx: mi, Reason: "jain ban violation"})
			}
		}
	}

	return v
}

func ingredientNames(m domain.Meal) string {
	names := make([]string, 0, len(m.Ingredients))
	for _, ing := range m.Ingredients {
		names = append(names, ing.Item)
	}
	return strings.Join(names, " ")
}

func containsAny(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func withinPct(actual, target, pct float64) bool {
	if target == 0 {
		return actual == 0
	}
	return math.Abs(actual-target) <= target*pct
}

// softOrHard: within ~10% over tolerance is soft (repairable); beyond that, hard.
func softOrHard(actual, target, tol float64) ViolationSeverity {
	if target == 0 {
		return SeverityHard
	}
	deviation := math.Abs(actual-target) / target
	if deviation <= tol+0.10 {
		return SeveritySoft
	}
	return SeverityHard
}

