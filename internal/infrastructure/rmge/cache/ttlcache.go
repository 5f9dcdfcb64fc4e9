// Package cache adapts the repository's local in-memory LRU+TTL cache
// (internal/infrastructure/cache.LocalCache) for the RMGE retrieval
// pipeline's three cache tiers: query-embedding cache, expansion cache,
// and retriever cache. It adds the hit/miss/size statistics those tiers
// must expose per SPEC_FULL.md §4.1/§4.3, plus an optional Redis-backed L2
// tier shared across process instances for the embedding cache.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	infracache "github.com/alchemorsel/v3/internal/infrastructure/cache"
)

// Stats is a point-in-time snapshot of a TTLCache's usage.
type Stats struct {
	Hits     int64
	Misses   int64
	Size     int
	L2Hits   int64
	L2Misses int64
}

// L2 is the optional shared cache tier consulted on an L1 miss. It is
// satisfied by internal/infrastructure/cache.RedisClient's Get/Set.
type L2 interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TTLCache wraps LocalCache with hit/miss counters. One instance backs one
// named cache tier (embedding, expansion, retriever). An optional L2 makes
// cached values (e.g. query embeddings) visible across replicas instead of
// being recomputed by every process.
type TTLCache struct {
	inner    *infracache.LocalCache
	ttl      time.Duration
	l2       L2
	hits     int64
	miss     int64
	l2hits   int64
	l2misses int64
}

// New creates a TTLCache bounded to maxSize entries with a default ttl
// applied by SetDefault.
func New(maxSize int, ttl time.Duration) *TTLCache {
	return &TTLCache{
		inner: infracache.NewLocalCache(maxSize),
		ttl:   ttl,
	}
}

// NewWithL2 creates a TTLCache backed by both the local LRU and a shared
// Redis-compatible L2 tier, for cache entries (like query embeddings) worth
// sharing across process instances. A nil l2 behaves like New.
func NewWithL2(maxSize int, ttl time.Duration, l2 L2) *TTLCache {
	c := New(maxSize, ttl)
	c.l2 = l2
	return c
}

// Get retrieves a cached value from L1, recording a hit or miss. It does not
// consult L2 since L2 only stores the JSON-serializable values written via
// GetOrFetchL2/SetDefault's L2 mirror; callers needing L2 fallback for
// non-JSON values should use GetOrFetchL2 directly.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.miss, 1)
	}
	return v, ok
}

// GetOrFetchL2 checks L1, then falls back to L2 (if configured) decoding
// into dst, populating L1 on an L2 hit so subsequent reads skip the round
// trip. Returns false if neither tier has the key.
func (c *TTLCache) GetOrFetchL2(ctx context.Context, key string, dst interface{}) bool {
	if v, ok := c.Get(key); ok {
		b, ok := v.([]byte)
		if !ok {
			return true
		}
		if err := json.Unmarshal(b, dst); err == nil {
			return true
		}
		return true
	}
	if c.l2 == nil {
		return false
	}
	raw, err := c.l2.Get(ctx, key)
	if err != nil || raw == nil {
		atomic.AddInt64(&c.l2misses, 1)
		return false
	}
	atomic.AddInt64(&c.l2hits, 1)
	if err := json.Unmarshal(raw, dst); err != nil {
		return false
	}
	c.inner.Set(key, raw, c.ttl)
	return true
}

// SetDefault stores a value with the cache's configured TTL.
func (c *TTLCache) SetDefault(key string, value interface{}) {
	c.inner.Set(key, value, c.ttl)
}

// SetWithL2 stores a value in L1 and mirrors its JSON encoding to L2 when
// configured, so other process instances can reuse it.
func (c *TTLCache) SetWithL2(ctx context.Context, key string, value interface{}) error {
	c.inner.Set(key, value, c.ttl)
	if c.l2 == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.l2.Set(ctx, key, raw, c.ttl)
}

// Set stores a value with an explicit TTL, overriding the cache default.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.inner.Set(key, value, ttl)
}

// Delete removes a key.
func (c *TTLCache) Delete(key string) {
	c.inner.Delete(key)
}

// Stats returns the current hit/miss/size snapshot.
func (c *TTLCache) Stats() Stats {
	return Stats{
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.miss),
		Size:     c.inner.Size(),
		L2Hits:   atomic.LoadInt64(&c.l2hits),
		L2Misses: atomic.LoadInt64(&c.l2misses),
	}
}
