package rmge

import (
	"regexp"
	"sort"
	"strings"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
)

// ReRankWeights is the normalized feature weight vector used to combine
// per-document feature scores into one ranking score, per SPEC_FULL.md §4.6.
type ReRankWeights struct {
	Semantic float64
	Protein  float64
	Carbs    float64
	GI       float64
	Budget   float64
	Time     float64
}

func defaultWeights() ReRankWeights {
	return ReRankWeights{Semantic: 0.40, Protein: 0.15, Carbs: 0.10, GI: 0.20, Budget: 0.10, Time: 0.05}
}

var quickFastEasyRe = regexp.MustCompile(`\b(quick|fast|easy)\b`)

// DetectIntentWeights applies the query intent table from SPEC_FULL.md §4.6:
// only the first matching specific intent applies; keto composes additively.
func DetectIntentWeights(query string, isKeto bool) ReRankWeights {
	w := defaultWeights()
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "high protein") || strings.Contains(q, "protein-rich"):
		w.Protein, w.Semantic = 0.30, 0.30
	case quickFastEasyRe.MatchString(q):
		w.Time, w.Semantic = 0.20, 0.30
	case strings.Contains(q, "budget") || strings.Contains(q, "cheap") ||
		strings.Contains(q, "affordable") || strings.Contains(q, "low cost"):
		w.Budget, w.Semantic = 0.25, 0.30
	case strings.Contains(q, "low gi") || strings.Contains(q, "low glycemic") || strings.Contains(q, "blood sugar"):
		w.GI, w.Semantic = 0.30, 0.30
	case strings.Contains(q, "protein"):
		w.Protein, w.Semantic = 0.25, 0.35
	}

	if isKeto {
		w.Carbs, w.Protein, w.Semantic = 0.25, 0.20, 0.25
	}

	return normalizeWeights(w)
}

func normalizeWeights(w ReRankWeights) ReRankWeights {
	sum := w.Semantic + w.Protein + w.Carbs + w.GI + w.Budget + w.Time
	if sum == 0 {
		return defaultWeights()
	}
	return ReRankWeights{
		Semantic: w.Semantic / sum,
		Protein:  w.Protein / sum,
		Carbs:    w.Carbs / sum,
		GI:       w.GI / sum,
		Budget:   w.Budget / sum,
		Time:     w.Time / sum,
	}
}

// ReRankContext carries the per-meal macro targets and limits the feature
// scorers need.
type ReRankContext struct {
	IsKeto        bool
	KetoMaxCarbsG float64
	TargetProtein float64
	TargetCarbs   float64
	UserBudget    float64
	MaxPrepTime   int // minutes
	ProteinUpper  float64
}

// ReRanker produces a combined score per ScoredDoc from weighted feature
// scores, per SPEC_FULL.md §4.6.
type ReRanker struct{}

// NewReRanker returns a stateless ReRanker.
func NewReRanker() *ReRanker {
	return &ReRanker{}
}

// ReRank scores and sorts docs descending by combined score, using
// intent-detected weights for query.
func (r *ReRanker) ReRank(docs []domain.ScoredDoc, query string, rctx ReRankContext) []domain.ScoredDoc {
	weights := DetectIntentWeights(query, rctx.IsKeto)

	out := make([]domain.ScoredDoc, len(docs))
	copy(out, docs)

	for i := range out {
		features := scoreFeatures(out[i], rctx)
		combined := features["semantic"]*weights.Semantic +
			features["protein"]*weights.Protein +
			features["carbs"]*weights.Carbs +
			features["gi"]*weights.GI +
			features["budget"]*weights.Budget +
			features["time"]*weights.Time

		out[i].FeatureScores = features
		out[i].RerankScore = combined
		out[i].HasRerank = true
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RerankScore > out[j].RerankScore
	})

	return out
}

func scoreFeatures(sd domain.ScoredDoc, rctx ReRankContext) map[string]float64 {
	m := sd.Document.Metadata

	semantic := clamp01(sd.SemanticScore)

	protein := 0.0
	if rctx.ProteinUpper > 0 {
		protein = clamp01(m.Protein / rctx.ProteinUpper)
	}
	if rctx.TargetProtein > 0 && m.Protein >= rctx.TargetProtein {
		protein = clamp01(protein + 0.2)
	}

	var carbs float64
	netCarbs := m.NetCarbs()
	if rctx.IsKeto {
		limit := rctx.KetoMaxCarbsG * 3
		if limit > 0 {
			carbs = clamp01(1 - netCarbs/limit)
		}
	} else if rctx.TargetCarbs > 0 {
		carbs = clamp01(1 - absf(netCarbs-rctx.TargetCarbs)/rctx.TargetCarbs)
	}

	gi := 0.5
	switch m.GI {
	case domain.GILow:
		gi = 1.0
	case domain.GIMedium:
		gi = 0.7
	case domain.GIHigh:
		gi = 0.3
	}

	budget := 1.0
	if rctx.UserBudget > 0 && m.BudgetMax > 0 {
		if m.BudgetMax > rctx.UserBudget {
			overage := (m.BudgetMax - rctx.UserBudget) / rctx.UserBudget
			budget = clamp01(1 - overage)
		}
	}

	timeScore := 1.0
	if rctx.MaxPrepTime > 0 && m.PrepTimeParsed {
		ratio := float64(m.PrepTimeMins) / float64(rctx.MaxPrepTime)
		if m.PrepTimeMins <= rctx.MaxPrepTime {
			timeScore = 1.0 - 0.3*ratio
		} else {
			timeScore = clamp01(0.7 - 0.3*(ratio-1))
		}
	}

	return map[string]float64{
		"semantic": semantic,
		"protein":  protein,
		"carbs":    carbs,
		"gi":       gi,
		"budget":   budget,
		"time":     timeScore,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
