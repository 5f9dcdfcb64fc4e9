package rmge

import (
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredDoc(mealName, state string, score float64) domain.ScoredDoc {
	return domain.ScoredDoc{
		Document:      domain.Document{Metadata: domain.Metadata{MealName: mealName, State: state}},
		SemanticScore: score,
	}
}

func TestDeduplicator_Apply_StateSpecificSubordinatesAllStates(t *testing.T) {
	// Same scenario as the All-States subordination rule: an "All States"
	// entry for a meal name must not survive alongside a state-specific one.
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Paneer Tikka", domain.AllStates, 0.9),
		scoredDoc("Paneer Tikka", "Punjab", 0.5),
	}

	got := d.Apply(docs)

	require.Len(t, got, 1)
	assert.Equal(t, "Punjab", got[0].Document.Metadata.State)
}

func TestDeduplicator_Apply_MultipleStateVariantsAllSurvive(t *testing.T) {
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Dal Makhani", "Punjab", 0.5),
		scoredDoc("Dal Makhani", "Haryana", 0.6),
	}

	got := d.Apply(docs)

	assert.Len(t, got, 2)
}

func TestDeduplicator_Apply_DuplicateStateKeepsHigherScoring(t *testing.T) {
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Dal Makhani", "Punjab", 0.2),
		scoredDoc("Dal Makhani", "Punjab", 0.8),
	}

	got := d.Apply(docs)

	require.Len(t, got, 1)
	assert.Equal(t, 0.8, got[0].SemanticScore)
}

func TestDeduplicator_Apply_OnlyAllStatesKeepsBestOfThem(t *testing.T) {
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Khichdi", domain.AllStates, 0.3),
		scoredDoc("Khichdi", domain.AllStates, 0.7),
	}

	got := d.Apply(docs)

	require.Len(t, got, 1)
	assert.Equal(t, 0.7, got[0].SemanticScore)
}

func TestDeduplicator_Apply_UnrelatedMealNamesAllSurvive(t *testing.T) {
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Khichdi", domain.AllStates, 0.3),
		scoredDoc("Paneer Tikka", "Punjab", 0.5),
	}

	got := d.Apply(docs)

	assert.Len(t, got, 2)
}

func TestDeduplicator_Apply_TracksGroupStats(t *testing.T) {
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Paneer Tikka", domain.AllStates, 0.9),
		scoredDoc("Paneer Tikka", "Punjab", 0.5),
		scoredDoc("Khichdi", "Kerala", 0.4),
	}

	d.Apply(docs)
	stats := d.Stats()

	assert.Equal(t, int64(2), stats.GroupsSeen)
	assert.Equal(t, int64(1), stats.GroupsCollapsed)
}

func TestDeduplicator_ApplySimple_KeepsFirstPerMealNameAndState(t *testing.T) {
	d := NewDeduplicator()
	docs := []domain.ScoredDoc{
		scoredDoc("Paneer Tikka", "Punjab", 0.9),
		scoredDoc("Paneer Tikka", "Punjab", 0.1),
		scoredDoc("Paneer Tikka", domain.AllStates, 0.5),
	}

	got := d.ApplySimple(docs)

	require.Len(t, got, 2)
	assert.Equal(t, 0.9, got[0].SemanticScore)
}

func TestDeduplicator_Apply_EmptyInputReturnsEmpty(t *testing.T) {
	d := NewDeduplicator()
	got := d.Apply(nil)
	assert.Empty(t, got)
}
