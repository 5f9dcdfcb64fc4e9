package rmge

// Ingredient is a single line item within a Meal.
type Ingredient struct {
	Item     string
	Quantity float64
	Unit     string
}

// MealMacros is the realized macro content of a generated Meal.
type MealMacros struct {
	ProteinG float64
	CarbsG   float64
	FatG     float64
	FiberG   float64
	HasFiber bool
}

// NetCarbs applies the net-carb definition (SPEC_FULL.md §13) to a generated meal.
func (m MealMacros) NetCarbs() float64 {
	if m.HasFiber {
		if v := m.CarbsG - m.FiberG; v > 0 {
			return v
		}
		return 0
	}
	return m.CarbsG
}

// Meal is one slot within a Day.
type Meal struct {
	MealType    MealType
	Name        string
	Ingredients []Ingredient
	Macros      MealMacros
	Calories    float64
	GI          GILevel
	PrepTimeMin int
	Tip         string
}

// Day is an ordered sequence of Meals.
type Day struct {
	Meals []Meal
}

// MealPlan is the final artifact returned to the caller. It is ephemeral
// within the core; persistence is the caller's responsibility.
type MealPlan struct {
	Days     []Day
	Fallback bool // true when assembled via deterministic template fallback
	Metadata GenerationMetadata
}

// GenerationMetadata reports how a plan was produced, for observability.
type GenerationMetadata struct {
	RetrievalCandidateCount int
	RerankedCount           int
	RepairRoundsUsed        int
	StageDurationsMS        map[string]int64
	TotalDurationMS         int64
}
