package rmge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingService struct {
	calls   int
	embed   func(ctx context.Context, texts []string) ([][]float32, error)
	dims    int
}

func (f *fakeEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	return f.embed(ctx, texts)
}

func (f *fakeEmbeddingService) Dimensions() int { return f.dims }

func TestEmbedder_EmbedOne_EmptyTextIsValidationError(t *testing.T) {
	e := NewEmbedder(&fakeEmbeddingService{}, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	_, err := e.EmbedOne(context.Background(), "   ")

	assert.Error(t, err)
}

func TestEmbedder_EmbedOne_CachesSubsequentCalls(t *testing.T) {
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{0.1, 0.2}}, nil
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	first, err := e.EmbedOne(context.Background(), "Paneer Curry")
	require.NoError(t, err)
	second, err := e.EmbedOne(context.Background(), "  paneer curry ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, svc.calls)
}

func TestEmbedder_EmbedOne_RetriesTransientFailures(t *testing.T) {
	calls := 0
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 2 {
			return nil, errTransientUpstream
		}
		return [][]float32{{1, 2, 3}}, nil
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	got, err := e.EmbedOne(context.Background(), "dal fry")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got)
	assert.Equal(t, 2, calls)
}

func TestEmbedder_EmbedOne_EmptyResponseIsNonRetryable(t *testing.T) {
	calls := 0
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		return [][]float32{}, nil
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	_, err := e.EmbedOne(context.Background(), "dal fry")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestEmbedder_EmbedMany_EmptyInputReturnsNil(t *testing.T) {
	e := NewEmbedder(&fakeEmbeddingService{}, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	got, err := e.EmbedMany(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmbedder_EmbedMany_SingleBatchPreservesOrder(t *testing.T) {
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i)}
		}
		return out, nil
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	got, err := e.EmbedMany(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float32{0}, got[0])
	assert.Equal(t, []float32{2}, got[2])
	assert.Equal(t, 1, svc.calls)
}

func TestEmbedder_EmbedMany_SplitsAcrossBatchSizeBoundary(t *testing.T) {
	texts := make([]string, DefaultEmbeddingTuning().BatchSize+20)
	for i := range texts {
		texts[i] = "item"
	}
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, batch []string) ([][]float32, error) {
		out := make([][]float32, len(batch))
		for i := range batch {
			out[i] = []float32{1}
		}
		return out, nil
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	got, err := e.EmbedMany(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, got, len(texts))
	assert.Equal(t, 2, svc.calls)
}

func TestEmbedder_EmbedMany_PropagatesPersistentFailure(t *testing.T) {
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("permanently broken")
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	_, err := e.EmbedMany(context.Background(), []string{"a"})

	assert.Error(t, err)
}

func TestEmbedder_CacheStats_ReflectsHitsAndMisses(t *testing.T) {
	svc := &fakeEmbeddingService{embed: func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}}
	e := NewEmbedder(svc, fastRetryConfig(), DefaultEmbeddingTuning(), nil)

	e.EmbedOne(context.Background(), "x")
	e.EmbedOne(context.Background(), "x")

	stats := e.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}
