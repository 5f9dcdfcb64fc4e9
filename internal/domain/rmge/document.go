// Package rmge defines the domain entities and value objects for the
// retrieval-augmented meal plan generation engine.
package rmge

import "strings"

// GILevel is the glycemic index category of a meal template.
type GILevel string

const (
	GILow     GILevel = "Low"
	GIMedium  GILevel = "Medium"
	GIHigh    GILevel = "High"
	GIUnknown GILevel = ""
)

// DietType constrains which documents and meals are compatible with a user.
type DietType string

const (
	DietVegetarian    DietType = "vegetarian"
	DietNonVegetarian DietType = "non-vegetarian"
	DietVegan         DietType = "vegan"
	DietJain          DietType = "jain"
	DietEggetarian    DietType = "eggetarian"
)

// MealType is one of the recognized slots in a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// AllStates is the sentinel region value meaning "not state-specific".
const AllStates = "All States"

// Metadata is the tagged-record view of a Document's structured fields, plus
// an untyped side-map for forward-compatible keys the core does not parse.
// Sequence-valued metadata round-trips through a comma-joined string at the
// storage boundary; object-valued metadata round-trips through a JSON string.
type Metadata struct {
	MealName       string
	State          string
	MealType       MealType
	DietType       DietType
	GI             GILevel
	Protein        float64
	Carbs          float64
	Fats           float64
	Fiber          float64
	HasFiber       bool
	Calories       float64
	PrepTimeRaw    string
	PrepTimeMins   int
	PrepTimeParsed bool
	BudgetFriendly bool
	BudgetMin      float64
	BudgetMax      float64
	Category       string
	Extra          map[string]string
}

// NormalizedMealName lowercases and trims the meal name for dedup/grouping keys.
func (m Metadata) NormalizedMealName() string {
	return strings.ToLower(strings.TrimSpace(m.MealName))
}

// IsAllStates reports whether this document is the region-agnostic variant.
func (m Metadata) IsAllStates() bool {
	return strings.EqualFold(strings.TrimSpace(m.State), AllStates)
}

// NetCarbs applies the keto net-carb definition decided in SPEC_FULL.md §13:
// carbs minus fiber when fiber is present in metadata, else total carbs.
func (m Metadata) NetCarbs() float64 {
	if m.HasFiber {
		if v := m.Carbs - m.Fiber; v > 0 {
			return v
		}
		return 0
	}
	return m.Carbs
}

// Document is an ingested meal template: content plus structured metadata.
// Documents are read-only from the core's perspective; they are created and
// mutated only by an external ingestion job.
type Document struct {
	ID        string
	Content   string
	Metadata  Metadata
	Embedding []float32 // set by the ingestion job before Upsert; empty on retrieval results
}

// ScoredDoc is a Document carrying retrieval and re-rank scores.
type ScoredDoc struct {
	Document      Document
	SemanticScore float64
	RerankScore   float64
	HasRerank     bool
	FeatureScores map[string]float64
}
