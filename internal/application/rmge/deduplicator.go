package rmge

import (
	"strings"
	"sync/atomic"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
)

// Deduplicator collapses ScoredDocs by normalized mealName, preferring
// state-specific variants over "All States" duplicates, per
// SPEC_FULL.md §4.5.
type Deduplicator struct {
	groupsTotal     int64
	groupsCollapsed int64
}

// NewDeduplicator returns a fresh Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// DedupStats reports the duplication rate observed by the last calls.
type DedupStats struct {
	GroupsSeen      int64
	GroupsCollapsed int64
}

func (d *Deduplicator) Stats() DedupStats {
	return DedupStats{
		GroupsSeen:      atomic.LoadInt64(&d.groupsTotal),
		GroupsCollapsed: atomic.LoadInt64(&d.groupsCollapsed),
	}
}

// Apply runs the All-States-subordinated dedup rule described in
// SPEC_FULL.md §4.5 / spec.md invariant: never keep an "All States"
// document when a state-specific variant exists for the same mealName.
func (d *Deduplicator) Apply(docs []domain.ScoredDoc) []domain.ScoredDoc {
	groups := make(map[string][]domain.ScoredDoc)
	order := make([]string, 0)

	for _, sd := range docs {
		key := sd.Document.Metadata.NormalizedMealName()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], sd)
	}

	atomic.AddInt64(&d.groupsTotal, int64(len(order)))

	out := make([]domain.ScoredDoc, 0, len(docs))
	for _, key := range order {
		group := groups[key]
		if len(group) > 1 {
			atomic.AddInt64(&d.groupsCollapsed, 1)
		}
		out = append(out, collapseGroup(group)...)
	}
	return out
}

// ApplySimple keeps the first occurrence per (mealName, state) without the
// All-States subordination rule, per SPEC_FULL.md §4.5's alternative mode.
func (d *Deduplicator) ApplySimple(docs []domain.ScoredDoc) []domain.ScoredDoc {
	seen := make(map[string]struct{})
	out := make([]domain.ScoredDoc, 0, len(docs))
	for _, sd := range docs {
		key := sd.Document.Metadata.NormalizedMealName() + "|" + strings.ToLower(strings.TrimSpace(sd.Document.Metadata.State))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sd)
	}
	return out
}

func collapseGroup(group []domain.ScoredDoc) []domain.ScoredDoc {
	stateSpecific := make(map[string]domain.ScoredDoc)
	var allStatesBest *domain.ScoredDoc

	for i := range group {
		sd := group[i]
		if sd.Document.Metadata.IsAllStates() {
			if allStatesBest == nil || sd.SemanticScore > allStatesBest.SemanticScore {
				best := sd
				allStatesBest = &best
			}
			continue
		}
		state := strings.ToLower(strings.TrimSpace(sd.Document.Metadata.State))
		if existing, ok := stateSpecific[state]; !ok || sd.SemanticScore > existing.SemanticScore {
			stateSpecific[state] = sd
		}
	}

	if len(stateSpecific) > 0 {
		out := make([]domain.ScoredDoc, 0, len(stateSpecific))
		for _, sd := range stateSpecific {
			out = append(out, sd)
		}
		return out
	}

	if allStatesBest != nil {
		return []domain.ScoredDoc{*allStatesBest}
	}
	return nil
}
