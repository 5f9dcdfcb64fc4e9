package rmge

import (
	"strings"
	"sync/atomic"
	"time"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
)

// FilterSpec is a predicate record accepted by MetadataFilter. Each field
// accepts a single value, a set of allowed values, or the wildcard "any".
// A nil/empty field means unconstrained.
type FilterSpec struct {
	DietType    []domain.DietType
	GI          []domain.GILevel
	State       string // "any" or a specific region/state, case-insensitive
	MaxPrepTime int     // minutes, 0 = unconstrained
	MinProtein  float64
	MaxCarbs    float64 // 0 = unconstrained
	HasMaxCarbs bool
	BudgetLevel float64 // userBudget ceiling, 0 = unconstrained
	MealType    domain.MealType
}

// TranslatePreferences builds a FilterSpec from a user profile and request,
// per SPEC_FULL.md §4.4's preference-to-filter translation.
func TranslatePreferences(profile domain.UserProfile, req domain.PlanRequest) FilterSpec {
	spec := FilterSpec{State: "any"}

	switch profile.DietType {
	case domain.DietVegetarian:
		spec.DietType = []domain.DietType{domain.DietVegetarian, domain.DietVegan, domain.DietEggetarian}
	case domain.DietVegan, domain.DietJain, domain.DietNonVegetarian, domain.DietEggetarian:
		spec.DietType = []domain.DietType{profile.DietType}
	}

	if req.IsKeto {
		spec.GI = []domain.GILevel{domain.GILow}
		spec.MaxCarbs = 20
		spec.HasMaxCarbs = true
	}

	if req.BudgetPerDay > 0 {
		spec.BudgetLevel = req.BudgetPerDay
	}
	if req.MealTypeFocus != "" {
		spec.MealType = req.MealTypeFocus
	}

	return spec
}

// MetadataFilter is a pure, side-effect-free predicate composition over
// Documents, per SPEC_FULL.md §4.4.
type MetadataFilter struct {
	docsIn   int64
	docsOut  int64
	timeSpNs int64
	calls    int64
}

// NewMetadataFilter returns a fresh, stateless-except-stats filter.
func NewMetadataFilter() *MetadataFilter {
	return &MetadataFilter{}
}

// Apply returns the subsequence of docs matching spec, preserving order.
func (f *MetadataFilter) Apply(docs []domain.Document, spec FilterSpec) []domain.Document {
	start := time.Now()
	out := make([]domain.Document, 0, len(docs))

	for _, d := range docs {
		if matchesSpec(d.Metadata, spec) {
			out = append(out, d)
		}
	}

	atomic.AddInt64(&f.docsIn, int64(len(docs)))
	atomic.AddInt64(&f.docsOut, int64(len(out)))
	atomic.AddInt64(&f.timeSpNs, int64(time.Since(start)))
	atomic.AddInt64(&f.calls, 1)

	return out
}

// FilterStats is the cumulative statistics MetadataFilter exposes.
type FilterStats struct {
	DocumentsIn     int64
	DocumentsOut    int64
	AverageDuration time.Duration
}

// Stats returns the cumulative in/out counts and average per-call duration.
func (f *MetadataFilter) Stats() FilterStats {
	calls := atomic.LoadInt64(&f.calls)
	var avg time.Duration
	if calls > 0 {
		avg = time.Duration(atomic.LoadInt64(&f.timeSpNs) / calls)
	}
	return FilterStats{
		DocumentsIn:     atomic.LoadInt64(&f.docsIn),
		DocumentsOut:    atomic.LoadInt64(&f.docsOut),
		AverageDuration: avg,
	}
}

func matchesSpec(m domain.Metadata, spec FilterSpec) bool {
	if len(spec.DietType) > 0 && !containsDiet(spec.DietType, m.DietType) {
		return false
	}
	if len(spec.GI) > 0 && !containsGI(spec.GI, m.GI) {
		return false
	}
	if spec.State != "" && !strings.EqualFold(spec.State, "any") {
		if !m.IsAllStates() && !strings.EqualFold(strings.TrimSpace(m.State), spec.State) {
			return false
		}
	}
	if spec.MaxPrepTime > 0 && m.PrepTimeParsed && m.PrepTimeMins > spec.MaxPrepTime {
		return false
	}
	if spec.MinProtein > 0 && m.Protein < spec.MinProtein {
		return false
	}
	if spec.HasMaxCarbs && m.NetCarbs() > spec.MaxCarbs {
		return false
	}
	if spec.BudgetLevel > 0 && m.BudgetMax > 0 && m.BudgetMax > spec.BudgetLevel {
		return false
	}
	if spec.MealType != "" && m.MealType != spec.MealType {
		return false
	}
	return true
}

func containsDiet(set []domain.DietType, v domain.DietType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsGI(set []domain.GILevel, v domain.GILevel) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
