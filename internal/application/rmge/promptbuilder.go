package rmge

import (
	"fmt"
	"strings"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
)

const (
	maxExcerptDocs    = 20
	approxTokenPerCh  = 4
	promptTokenBudget = 50_000
)

// BuildForbiddenList derives the negative-constraint block from diet/keto
// incompatibilities plus the user's allergies, per SPEC_FULL.md §4.8.
func BuildForbiddenList(req domain.PlanRequest, profile domain.UserProfile) []string {
	forbidden := make(map[string]struct{})
	for dish := range req.ForbiddenDish {
		forbidden[dish] = struct{}{}
	}
	for allergy := range profile.Allergies {
		forbidden[allergy] = struct{}{}
	}

	switch profile.DietType {
	case domain.DietVegan:
		for _, t := range []string{"milk", "paneer", "curd", "egg", "chicken", "fish", "mutton"} {
			forbidden[t] = struct{}{}
		}
	case domain.DietJain:
		for _, t := range []string{"onion", "garlic", "potato", "carrot", "beetroot"} {
			forbidden[t] = struct{}{}
		}
	}
	if req.IsKeto {
		for _, t := range []string{"rice", "roti", "wheat", "bread", "potato", "corn"} {
			forbidden[t] = struct{}{}
		}
	}

	out := make([]string, 0, len(forbidden))
	for k := range forbidden {
		out = append(out, k)
	}
	return out
}

// PromptBuilder assembles the single LLM prompt described in SPEC_FULL.md §4.8.
type PromptBuilder struct{}

// NewPromptBuilder returns a stateless PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Assemble builds the full prompt string. docs must already be re-ranked and
// trimmed to at most maxExcerptDocs by the caller (the Orchestrator).
func (b *PromptBuilder) Assemble(req domain.PlanRequest, profile domain.UserProfile, targets domain.MacroTargets, docs []domain.ScoredDoc) string {
	var sb strings.Builder

	sb.WriteString("You are an empathetic dietary assistant. Respond with ONLY a structured JSON meal plan: ")
	fmt.Fprintf(&sb, "one day per requested day (%d days), %d meals per day. No prose outside the JSON.\n\n", req.DurationDays, req.MealsPerDay)

	forbidden := BuildForbiddenList(req, profile)
	if len(forbidden) > 0 {
		sb.WriteString("FORBIDDEN — never use these dishes or ingredients: ")
		sb.WriteString(strings.Join(forbidden, ", "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Hard constraints:\n")
	fmt.Fprintf(&sb, "- Diet type: %s\n", profile.DietType)
	fmt.Fprintf(&sb, "- Keto: %v\n", req.IsKeto)
	fmt.Fprintf(&sb, "- Per-meal targets: protein %.0fg, carbs %.0fg, fat %.0fg (±%.0f%%)\n",
		targets.PerMealProteinG, targets.PerMealCarbsG, targets.PerMealFatG, targets.PerMealToleranceP*100)
	fmt.Fprintf(&sb, "- Daily calorie target: %.0f kcal\n", targets.DailyCalories)
	if req.BudgetPerDay > 0 {
		fmt.Fprintf(&sb, "- Budget per day: %.0f\n", req.BudgetPerDay)
	}
	sb.WriteString("\n")

	excerpt, truncated := trimToTokenBudget(docs, maxExcerptDocs)
	if len(excerpt) > 0 {
		sb.WriteString("Reference templates (prefer these when suitable):\n")
		for _, sd := range excerpt {
			m := sd.Document.Metadata
			fmt.Fprintf(&sb, "- %s (%s): protein %.0fg carbs %.0fg fat %.0fg; %s\n",
				m.MealName, m.State, m.Protein, m.Carbs, m.Fats, shortIngredientCue(sd.Document.Content))
		}
		if truncated {
			sb.WriteString("(list truncated to fit prompt budget)\n")
		}
		sb.WriteString("\n")
	}

	if len(profile.Symptoms) > 0 || len(profile.Goals) > 0 {
		sb.WriteString("Guidance: ")
		if len(profile.Symptoms) > 0 {
			sb.WriteString("symptoms=" + joinKeys(profile.Symptoms) + "; ")
		}
		if len(profile.Goals) > 0 {
			sb.WriteString("goals=" + joinKeys(profile.Goals))
		}
		sb.WriteString("\n")
	}
	for k, v := range req.LabValues {
		fmt.Fprintf(&sb, "Lab value %s: %.2f\n", k, v)
	}

	sb.WriteString("\nOutput schema: {\"days\":[{\"meals\":[{\"mealType\":\"\",\"name\":\"\",")
	sb.WriteString("\"ingredients\":[{\"item\":\"\",\"quantity\":0,\"unit\":\"\"}],")
	sb.WriteString("\"macros\":{\"protein\":0,\"carbs\":0,\"fats\":0},\"calories\":0,\"gi\":\"\",\"prepTime\":0,\"tip\":\"\"}]}]}")

	return sb.String()
}

// trimToTokenBudget caps docs at maxDocs and, if the remaining prompt body
// would still exceed the approximate token budget, truncates from the
// least-ranked end first — never from constraints or the forbidden list,
// since those are assembled separately.
func trimToTokenBudget(docs []domain.ScoredDoc, maxDocs int) ([]domain.ScoredDoc, bool) {
	truncated := false
	if len(docs) > maxDocs {
		docs = docs[:maxDocs]
		truncated = true
	}

	for estimateTokens(docs) > promptTokenBudget && len(docs) > 0 {
		docs = docs[:len(docs)-1]
		truncated = true
	}
	return docs, truncated
}

func estimateTokens(docs []domain.ScoredDoc) int {
	chars := 0
	for _, sd := range docs {
		chars += len(sd.Document.Content) + len(sd.Document.Metadata.MealName)
	}
	return chars / approxTokenPerCh
}

func shortIngredientCue(content string) string {
	const maxLen = 80
	c := strings.TrimSpace(content)
	if len(c) > maxLen {
		return c[:maxLen] + "..."
	}
	return c
}

func joinKeys(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return strings.Join(out, ", ")
}
