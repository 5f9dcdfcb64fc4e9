// Package redis provides Redis repository implementations
package redis

import (
	"context"
	"time"
	
	"github.com/alchemorsel/v3/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheRepository implements the cache repository interface
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(client *redis.Client, logger *zap.Logger) outbound.CacheRepository {
	return &CacheRepository{
		client: client,
		logger: logger,
	}
}

// Set stores a value in cache
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Implementation would go here
	return nil
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	// Implementation would go here
	return nil, nil
}

// Delete removes a value from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	// Implementation would go here
	return nil
}