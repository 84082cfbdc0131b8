package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "spots.db", cfg.Database.Path)
	assert.Equal(t, "https://api-adresse.data.gouv.fr", cfg.Geocoding.BANBaseURL)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoding.NominatimBaseURL)
	assert.Empty(t, cfg.Geocoding.LegacyBANBaseURL)
	assert.True(t, cfg.Geocoding.EnforceRegion)
	assert.Equal(t, ", Occitanie, France", cfg.Geocoding.RegionContext)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.Equal(t, 4, cfg.Enrichment.BatchConcurrency)
	assert.Equal(t, 720*time.Hour, cfg.Geocoding.ResultCacheTTL())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/test-spots.db")
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("ENFORCE_REGION", "false")
	t.Setenv("NOMINATIM_MIN_INTERVAL_MS", "2000")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test-spots.db", cfg.Database.Path)
	assert.Equal(t, CacheTypeRedis, cfg.Cache.Type)
	assert.Equal(t, "redis.internal:6380", cfg.Cache.Redis.Addr)
	assert.False(t, cfg.Geocoding.EnforceRegion)
	assert.Equal(t, 2*time.Second, cfg.Geocoding.MinIntervals()[ports.ProviderOSM])
}

func TestLoadConfig_InvalidCacheType(t *testing.T) {
	t.Setenv("CACHE_TYPE", "memcached")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationError, errors.GetErrorType(err))
}

func TestGeocodingConfig_MinIntervalsCoverEveryProvider(t *testing.T) {
	cfg := GeocodingConfig{
		PremiumMinIntervalMs:       100,
		BANMinIntervalMs:           200,
		LegacyBANMinIntervalMs:     500,
		NominatimMinIntervalMs:     1100,
		IGNElevationMinIntervalMs:  200,
		OpenElevationMinIntervalMs: 1000,
	}

	intervals := cfg.MinIntervals()

	assert.Len(t, intervals, 6)
	assert.Equal(t, 1100*time.Millisecond, intervals[ports.ProviderOSM])
	assert.Equal(t, 100*time.Millisecond, intervals[ports.ProviderPremium])
}

func TestServerConfig_Validate(t *testing.T) {
	assert.NoError(t, ServerConfig{Port: 8080}.Validate())
	assert.Error(t, ServerConfig{Port: 0}.Validate())
	assert.Error(t, ServerConfig{Port: 70000}.Validate())
}

func TestDatabaseConfig_Validate(t *testing.T) {
	assert.NoError(t, DatabaseConfig{Path: "spots.db"}.Validate())
	assert.Error(t, DatabaseConfig{}.Validate())
}

func TestGeocodingConfig_Validate(t *testing.T) {
	valid := GeocodingConfig{BANBaseURL: "https://api-adresse.data.gouv.fr", ResultCacheTTLHours: 720}
	assert.NoError(t, valid.Validate())

	noProviders := GeocodingConfig{ResultCacheTTLHours: 720}
	assert.Error(t, noProviders.Validate())

	premiumWithoutTokenURL := GeocodingConfig{
		PremiumAPIKey:       "key",
		ResultCacheTTLHours: 720,
	}
	assert.Error(t, premiumWithoutTokenURL.Validate())

	zeroTTL := GeocodingConfig{BANBaseURL: "https://api-adresse.data.gouv.fr"}
	assert.Error(t, zeroTTL.Validate())
}

func TestCacheConfig_Validate(t *testing.T) {
	assert.NoError(t, CacheConfig{Type: CacheTypeMemory}.Validate())
	assert.NoError(t, CacheConfig{Type: CacheTypeRedis, Redis: RedisConfig{Addr: "localhost:6379"}}.Validate())
	assert.Error(t, CacheConfig{Type: CacheTypeUnknown}.Validate())
	assert.Error(t, CacheConfig{Type: CacheTypeRedis}.Validate())
	assert.Error(t, CacheConfig{Type: CacheTypeRedis, Redis: RedisConfig{Addr: "localhost:6379", DB: 42}}.Validate())
}

func TestEnrichmentConfig_Validate(t *testing.T) {
	assert.NoError(t, EnrichmentConfig{BatchConcurrency: 4}.Validate())
	assert.Error(t, EnrichmentConfig{BatchConcurrency: 0}.Validate())
	assert.Error(t, EnrichmentConfig{BatchConcurrency: 100}.Validate())
}

func TestCacheType_Conversions(t *testing.T) {
	assert.Equal(t, CacheTypeMemory, CacheTypeFromString("memory"))
	assert.Equal(t, CacheTypeRedis, CacheTypeFromString("redis"))
	assert.Equal(t, CacheTypeUnknown, CacheTypeFromString("other"))

	assert.Equal(t, "memory", CacheTypeMemory.String())
	assert.Equal(t, "redis", CacheTypeRedis.String())
	assert.True(t, CacheTypeMemory.IsValid())
	assert.False(t, CacheTypeUnknown.IsValid())
}
