package rmge

import (
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightSum(w ReRankWeights) float64 {
	return w.Semantic + w.Protein + w.Carbs + w.GI + w.Budget + w.Time
}

func TestDetectIntentWeights_NormalizesToOne(t *testing.T) {
	cases := []string{
		"something high protein please",
		"a quick easy dinner",
		"budget friendly lunch",
		"low gi snack",
		"whatever",
	}
	for _, q := range cases {
		t.Run(q, func(t *testing.T) {
			w := DetectIntentWeights(q, false)
			assert.InDelta(t, 1.0, weightSum(w), 1e-9)
		})
	}
}

func TestDetectIntentWeights_HighProteinBoostsProteinAndSemantic(t *testing.T) {
	got := DetectIntentWeights("high protein breakfast", false)
	base := defaultWeights()

	assert.Greater(t, got.Protein, base.Protein/weightSum(base))
}

func TestDetectIntentWeights_QuickFastEasyBoostsTime(t *testing.T) {
	got := DetectIntentWeights("a quick dinner idea", false)
	assert.Greater(t, got.Time, defaultWeights().Time/weightSum(defaultWeights()))
}

func TestDetectIntentWeights_BreakfastDoesNotMatchFastWordBoundary(t *testing.T) {
	// "breakfast" contains "fast" as a substring but the quick/fast/easy
	// detector must not fire on word-boundary-unaware matches.
	got := DetectIntentWeights("a simple breakfast", false)
	want := normalizeWeights(defaultWeights())

	assert.Equal(t, want, got)
}

func TestDetectIntentWeights_OnlyFirstMatchingSpecificIntentApplies(t *testing.T) {
	// "high protein" and "budget" both appear; high protein is checked
	// first in the table so only that branch should fire.
	got := DetectIntentWeights("budget friendly high protein meal", false)
	highProteinOnly := normalizeWeights(func() ReRankWeights {
		w := defaultWeights()
		w.Protein, w.Semantic = 0.30, 0.30
		return w
	}())

	assert.Equal(t, highProteinOnly, got)
}

func TestDetectIntentWeights_KetoComposesAdditivelyOnTopOfIntent(t *testing.T) {
	withoutKeto := DetectIntentWeights("high protein meal", false)
	withKeto := DetectIntentWeights("high protein meal", true)

	assert.NotEqual(t, withoutKeto, withKeto)
	assert.Greater(t, withKeto.Carbs, withoutKeto.Carbs)
	assert.InDelta(t, 1.0, weightSum(withKeto), 1e-9)
}

func TestNormalizeWeights_ZeroSumFallsBackToDefault(t *testing.T) {
	got := normalizeWeights(ReRankWeights{})
	assert.Equal(t, defaultWeights(), got)
}

func TestReRank_SortsDescendingByCombinedScore(t *testing.T) {
	r := NewReRanker()
	docs := []domain.ScoredDoc{
		{Document: domain.Document{Metadata: domain.Metadata{GI: domain.GIHigh}}, SemanticScore: 0.2},
		{Document: domain.Document{Metadata: domain.Metadata{GI: domain.GILow}}, SemanticScore: 0.9},
	}

	got := r.ReRank(docs, "dinner", ReRankContext{})

	require.Len(t, got, 2)
	assert.GreaterOrEqual(t, got[0].RerankScore, got[1].RerankScore)
	assert.True(t, got[0].HasRerank)
	assert.True(t, got[1].HasRerank)
}

func TestReRank_DoesNotMutateInputSlice(t *testing.T) {
	r := NewReRanker()
	docs := []domain.ScoredDoc{
		{Document: domain.Document{Metadata: domain.Metadata{GI: domain.GILow}}, SemanticScore: 0.5},
	}

	_ = r.ReRank(docs, "dinner", ReRankContext{})

	assert.False(t, docs[0].HasRerank)
}

func TestScoreFeatures_GILevelsRankLowHighestAndHighLowest(t *testing.T) {
	low := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{GI: domain.GILow}}}, ReRankContext{})
	med := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{GI: domain.GIMedium}}}, ReRankContext{})
	high := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{GI: domain.GIHigh}}}, ReRankContext{})

	assert.Greater(t, low["gi"], med["gi"])
	assert.Greater(t, med["gi"], high["gi"])
}

func TestScoreFeatures_KetoCarbScoreHigherWhenWellUnderLimit(t *testing.T) {
	rctx := ReRankContext{IsKeto: true, KetoMaxCarbsG: 20}

	lowCarb := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{Carbs: 5}}}, rctx)
	highCarb := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{Carbs: 55}}}, rctx)

	assert.Greater(t, lowCarb["carbs"], highCarb["carbs"])
}

func TestScoreFeatures_BudgetScorePenalizesOverBudgetDocs(t *testing.T) {
	rctx := ReRankContext{UserBudget: 100}

	withinBudget := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{BudgetMax: 80}}}, rctx)
	overBudget := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{BudgetMax: 200}}}, rctx)

	assert.Equal(t, 1.0, withinBudget["budget"])
	assert.Less(t, overBudget["budget"], 1.0)
}

func TestScoreFeatures_TimeScorePenalizesOverMaxPrepTime(t *testing.T) {
	rctx := ReRankContext{MaxPrepTime: 30}

	withinTime := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{PrepTimeMins: 15, PrepTimeParsed: true}}}, rctx)
	overTime := scoreFeatures(domain.ScoredDoc{Document: domain.Document{Metadata: domain.Metadata{PrepTimeMins: 60, PrepTimeParsed: true}}}, rctx)

	assert.Greater(t, withinTime["time"], overTime["time"])
}

func TestClamp01_BoundsValues(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-5))
	assert.Equal(t, 1.0, clamp01(5))
	assert.Equal(t, 0.5, clamp01(0.5))
}
