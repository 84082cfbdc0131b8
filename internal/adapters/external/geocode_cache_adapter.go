package external

import (
	"context"
	"encoding/json"
	"time"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// Geocode results are valid for as long as the process normally lives;
// addresses do not move
const defaultGeocodeCacheTTL = 30 * 24 * time.Hour

// GeocodeCacheAdapter bridges the generic CacheProvider to the typed
// GeocodeCache port. Put enforces the shadowing rule: an existing entry is
// only replaced by a result from a higher-priority provider or with a
// higher confidence, so a premium answer arriving after a cached BAN answer
// overwrites it, while a worse late answer is dropped.
type GeocodeCacheAdapter struct {
	cacheProvider ports.CacheProvider
	ttl           time.Duration
}

// NewGeocodeCacheAdapter creates a geocode cache over a generic cache provider
func NewGeocodeCacheAdapter(cacheProvider ports.CacheProvider, ttl time.Duration) ports.GeocodeCache {
	if ttl <= 0 {
		ttl = defaultGeocodeCacheTTL
	}
	return &GeocodeCacheAdapter{
		cacheProvider: cacheProvider,
		ttl:           ttl,
	}
}

// Get retrieves a cached geocode result
func (g *GeocodeCacheAdapter) Get(ctx context.Context, key string) (*ports.GeocodeResult, error) {
	data, err := g.cacheProvider.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var result ports.GeocodeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.NewCacheError("failed to deserialize geocode result", err)
	}

	return &result, nil
}

// Put stores a geocode result unless a better entry is already present
func (g *GeocodeCacheAdapter) Put(ctx context.Context, key string, result *ports.GeocodeResult) error {
	if result == nil {
		return errors.NewValidationError("geocode result cannot be nil")
	}

	if existing, err := g.Get(ctx, key); err == nil && existing != nil {
		if !shouldOverwrite(existing, result) {
			return nil
		}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errors.NewCacheError("failed to serialize geocode result", err)
	}

	return g.cacheProvider.Set(ctx, key, data, g.ttl)
}

// shouldOverwrite decides whether candidate may replace existing. Higher
// provider priority (lower rank) wins; equal or lower priority only wins on
// strictly higher confidence.
func shouldOverwrite(existing, candidate *ports.GeocodeResult) bool {
	if PriorityRank(candidate.Provider) < PriorityRank(existing.Provider) {
		return true
	}
	return candidate.Confidence > existing.Confidence
}
