package rmge

import (
	"context"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"go.uber.org/zap"
)

const vectorIndexUpsertBatchSize = 150

// VectorIndex wraps the outbound VectorIndexService adapter with Retry, per
// SPEC_FULL.md §4.2.
type VectorIndex struct {
	svc    outbound.VectorIndexService
	retry  RetryConfig
	logger *zap.Logger
}

// NewVectorIndex constructs a VectorIndex around an outbound adapter.
func NewVectorIndex(svc outbound.VectorIndexService, retry RetryConfig, logger *zap.Logger) *VectorIndex {
	return &VectorIndex{svc: svc, retry: retry, logger: logger}
}

// SimilaritySearch returns the top-k matches by cosine similarity.
func (v *VectorIndex) SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]outbound.VectorIndexMatch, error) {
	var matches []outbound.VectorIndexMatch
	err := Retry(ctx, v.retry, classifyTransient, func(ctx context.Context) error {
		m, err := v.svc.SimilaritySearch(ctx, queryVector, k)
		if err != nil {
			return indexErr("similarity search", err)
		}
		matches = m
		return nil
	})
	return matches, err
}

// Upsert batches docs at vectorIndexUpsertBatchSize per call and issues
// them sequentially within one ingestion job, as required by SPEC_FULL.md §4.2.
func (v *VectorIndex) Upsert(ctx context.Context, docs []domain.Document) error {
	for start := 0; start < len(docs); start += vectorIndexUpsertBatchSize {
		end := start + vectorIndexUpsertBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]
		err := Retry(ctx, v.retry, classifyTransient, func(ctx context.Context) error {
			if err := v.svc.Upsert(ctx, batch); err != nil {
				return indexErr("upsert", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Stats reports the current document count in the index.
func (v *VectorIndex) Stats(ctx context.Context) (int, error) {
	var count int
	err := Retry(ctx, v.retry, classifyTransient, func(ctx context.Context) error {
		c, err := v.svc.Stats(ctx)
		if err != nil {
			return indexErr("stats", err)
		}
		count = c
		return nil
	})
	return count, err
}

// DeleteAll clears an entire namespace.
func (v *VectorIndex) DeleteAll(ctx context.Context, namespace string) error {
	return Retry(ctx, v.retry, classifyTransient, func(ctx context.Context) error {
		if err := v.svc.DeleteAll(ctx, namespace); err != nil {
			return indexErr("delete all", err)
		}
		return nil
	})
}
