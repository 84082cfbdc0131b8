package external

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"spotsapi.app/internal/config"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// RedisCacheProviderAdapter is the Redis cache backend, for deployments
// where several API instances should share geocode results
type RedisCacheProviderAdapter struct {
	client *redis.Client
	stats  struct {
		hits   int64
		misses int64
		mutex  sync.RWMutex
	}
}

// NewRedisCacheProviderAdapter creates a new Redis cache provider adapter
func NewRedisCacheProviderAdapter(cfg *config.RedisConfig) (*RedisCacheProviderAdapter, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("redis config cannot be nil", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", err)
	}

	return &RedisCacheProviderAdapter{
		client: client,
	}, nil
}

// Get retrieves a value from Redis; cache misses return a NotFound error
func (r *RedisCacheProviderAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.NewValidationError("cache key cannot be empty")
	}

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.recordMiss()
			return nil, errors.NewNotFoundError("cache miss")
		}
		return nil, errors.NewCacheError("redis get operation failed", err)
	}

	r.recordHit()
	return []byte(val), nil
}

// Set stores a value in Redis with a TTL
func (r *RedisCacheProviderAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}
	if value == nil {
		return errors.NewValidationError("cache value cannot be nil")
	}
	if ttl <= 0 {
		return errors.NewValidationError("cache TTL must be positive")
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.NewCacheError("redis set operation failed", err)
	}

	return nil
}

// Delete removes a value from Redis
func (r *RedisCacheProviderAdapter) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.NewValidationError("cache key cannot be empty")
	}

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.NewCacheError("redis delete operation failed", err)
	}

	return nil
}

// Exists reports whether a key is present in Redis
func (r *RedisCacheProviderAdapter) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.NewValidationError("cache key cannot be empty")
	}

	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.NewCacheError("redis exists operation failed", err)
	}

	return count > 0, nil
}

// Clear flushes the configured Redis database
func (r *RedisCacheProviderAdapter) Clear(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		return errors.NewCacheError("redis flush operation failed", err)
	}
	return nil
}

// Close releases the Redis connection
func (r *RedisCacheProviderAdapter) Close() error {
	return r.client.Close()
}

// GetStats returns hit/miss counters
func (r *RedisCacheProviderAdapter) GetStats() ports.CacheStats {
	r.stats.mutex.RLock()
	defer r.stats.mutex.RUnlock()

	total := r.stats.hits + r.stats.misses
	hitRatio := float64(0)
	if total > 0 {
		hitRatio = float64(r.stats.hits) / float64(total)
	}

	return ports.CacheStats{
		Hits:        r.stats.hits,
		Misses:      r.stats.misses,
		TotalOps:    total,
		HitRatio:    hitRatio,
		LastUpdated: time.Now(),
	}
}

// RecordHit increments the hit counter
func (r *RedisCacheProviderAdapter) RecordHit() {
	r.recordHit()
}

// RecordMiss increments the miss counter
func (r *RedisCacheProviderAdapter) RecordMiss() {
	r.recordMiss()
}

func (r *RedisCacheProviderAdapter) recordHit() {
	r.stats.mutex.Lock()
	defer r.stats.mutex.Unlock()
	r.stats.hits++
}

func (r *RedisCacheProviderAdapter) recordMiss() {
	r.stats.mutex.Lock()
	defer r.stats.mutex.Unlock()
	r.stats.misses++
}
