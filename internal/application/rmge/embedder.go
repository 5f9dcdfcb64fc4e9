package rmge

import (
	"context"
	"strings"
	"time"

	"github.com/alchemorsel/v3/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	rmgecache "github.com/alchemorsel/v3/internal/infrastructure/rmge/cache"
)

// EmbeddingTuning configures the Embedder's cache sizing and batch/rate
// behavior. Sourced from rmge.embedding.{cache_size,cache_ttl,batch_size,
// rate_limit_rps}.
type EmbeddingTuning struct {
	CacheSize    int
	CacheTTL     time.Duration
	BatchSize    int
	RateLimitRPS float64
}

// DefaultEmbeddingTuning matches the values this package hardcoded before
// rmge.embedding.* config plumbing existed.
func DefaultEmbeddingTuning() EmbeddingTuning {
	return EmbeddingTuning{
		CacheSize:    500,
		CacheTTL:     1 * time.Hour,
		BatchSize:    100,
		RateLimitRPS: 5, // one batch request per 200ms
	}
}

// Embedder produces vectors for text, backed by an LRU(+TTL) on embedOne and
// bounded-batch retry on embedMany, per SPEC_FULL.md §4.1.
type Embedder struct {
	svc     outbound.EmbeddingService
	cache   *rmgecache.TTLCache
	retry   RetryConfig
	tuning  EmbeddingTuning
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewEmbedder wires an outbound embedding client with its query cache. An
// optional l2 makes the embedding cache visible across process instances
// instead of being recomputed by every replica; pass nil for local-only.
func NewEmbedder(svc outbound.EmbeddingService, retry RetryConfig, tuning EmbeddingTuning, logger *zap.Logger, l2 ...rmgecache.L2) *Embedder {
	var l2Tier rmgecache.L2
	if len(l2) > 0 {
		l2Tier = l2[0]
	}
	if tuning.BatchSize <= 0 {
		tuning = DefaultEmbeddingTuning()
	}
	return &Embedder{
		svc:     svc,
		cache:   rmgecache.NewWithL2(tuning.CacheSize, tuning.CacheTTL, l2Tier),
		retry:   retry,
		tuning:  tuning,
		limiter: rate.NewLimiter(rate.Limit(tuning.RateLimitRPS), 1),
		logger:  logger,
	}
}

func isEmbeddingRetryable(err error) bool {
	return classifyTransient(err)
}

// EmbedOne returns the vector for a single text, cached by normalized text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	key := normalizeCacheKey(text)
	if key == "" {
		return nil, validationErr("embedOne: empty text")
	}

	if v, ok := e.cache.Get(key); ok {
		return v.([]float32), nil
	}
	var l2Result []float32
	if e.cache.GetOrFetchL2(ctx, key, &l2Result) && len(l2Result) > 0 {
		return l2Result, nil
	}

	var result []float32
	err := Retry(ctx, e.retry, isEmbeddingRetryable, func(ctx context.Context) error {
		vecs, err := e.svc.Embed(ctx, []string{text})
		if err != nil {
			return embeddingErr("embed one", err)
		}
		if len(vecs) == 0 {
			return embeddingErr("embed one", errEmptyResponse)
		}
		result = vecs[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetWithL2(ctx, key, result); err != nil && e.logger != nil {
		e.logger.Debug("rmge embedding L2 cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

// EmbedMany embeds a batch of documents, bypassing the LRU and partitioning
// into batches of at most the configured batch size, issued sequentially
// with rate limiting to respect upstream limits.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batchRetry := e.retry
	batchRetry.InitialDelay = 2 * time.Second

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.tuning.BatchSize {
		end := start + e.tuning.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, cancelledErr("embedMany")
		}

		var vecs [][]float32
		err := Retry(ctx, batchRetry, isEmbeddingRetryable, func(ctx context.Context) error {
			v, err := e.svc.Embed(ctx, batch)
			if err != nil {
				return embeddingErr("embed batch", err)
			}
			vecs = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		results = append(results, vecs...)
	}

	return results, nil
}

// CacheStats exposes the embedding LRU's hit/miss/size counters.
func (e *Embedder) CacheStats() rmgecache.Stats {
	return e.cache.Stats()
}

func normalizeCacheKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
