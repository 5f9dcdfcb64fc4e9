package rmge

import (
	"context"
	"errors"
	"testing"

	domain "github.com/alchemorsel/v3/internal/domain/rmge"
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVectorIndexService struct {
	upsertBatches [][]domain.Document
	upsertErr     error
	searchResult  []outbound.VectorIndexMatch
	searchErr     error
	statsCount    int
	statsErr      error
	deleteErr     error
}

func (f *fakeVectorIndexService) Upsert(ctx context.Context, docs []domain.Document) error {
	f.upsertBatches = append(f.upsertBatches, docs)
	return f.upsertErr
}

func (f *fakeVectorIndexService) SimilaritySearch(ctx context.Context, queryVector []float32, k int) ([]outbound.VectorIndexMatch, error) {
	return f.searchResult, f.searchErr
}

func (f *fakeVectorIndexService) Stats(ctx context.Context) (int, error) {
	return f.statsCount, f.statsErr
}

func (f *fakeVectorIndexService) DeleteAll(ctx context.Context, namespace string) error {
	return f.deleteErr
}

func TestVectorIndex_Upsert_SplitsIntoBatchesOf150(t *testing.T) {
	docs := make([]domain.Document, vectorIndexUpsertBatchSize+30)
	svc := &fakeVectorIndexService{}
	v := NewVectorIndex(svc, fastRetryConfig(), nil)

	err := v.Upsert(context.Background(), docs)

	require.NoError(t, err)
	require.Len(t, svc.upsertBatches, 2)
	assert.Len(t, svc.upsertBatches[0], vectorIndexUpsertBatchSize)
	assert.Len(t, svc.upsertBatches[1], 30)
}

func TestVectorIndex_Upsert_StopsAtFirstFailingBatch(t *testing.T) {
	docs := make([]domain.Document, vectorIndexUpsertBatchSize+10)
	svc := &fakeVectorIndexService{upsertErr: errTransientUpstream}
	v := NewVectorIndex(svc, fastRetryConfig(), nil)

	err := v.Upsert(context.Background(), docs)

	assert.Error(t, err)
	assert.Len(t, svc.upsertBatches, fastRetryConfig().MaxRetries+1)
}

func TestVectorIndex_SimilaritySearch_ReturnsMatches(t *testing.T) {
	svc := &fakeVectorIndexService{searchResult: []outbound.VectorIndexMatch{
		{Document: domain.Document{ID: "d1"}, Score: 0.9},
	}}
	v := NewVectorIndex(svc, fastRetryConfig(), nil)

	got, err := v.SimilaritySearch(context.Background(), []float32{0.1}, 5)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].Document.ID)
}

func TestVectorIndex_Stats_PropagatesCount(t *testing.T) {
	svc := &fakeVectorIndexService{statsCount: 42}
	v := NewVectorIndex(svc, fastRetryConfig(), nil)

	got, err := v.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestVectorIndex_DeleteAll_PropagatesError(t *testing.T) {
	svc := &fakeVectorIndexService{deleteErr: errors.New("namespace gone")}
	v := NewVectorIndex(svc, fastRetryConfig(), nil)

	err := v.DeleteAll(context.Background(), "ns1")

	assert.Error(t, err)
}
