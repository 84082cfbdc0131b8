package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

const (
	maxRedisDB     = 15
	maxPortNumber  = 65535
	maxConcurrency = 64
)

// Config represents the application configuration structure
type Config struct {
	Server     ServerConfig     `split_words:"true"`
	Database   DatabaseConfig   `split_words:"true"`
	Geocoding  GeocodingConfig  `split_words:"true"`
	Cache      CacheConfig      `split_words:"true"`
	Enrichment EnrichmentConfig `split_words:"true"`
}

type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig points at the SQLite file backing the spot store
type DatabaseConfig struct {
	Path string `envconfig:"DB_PATH" default:"spots.db"`
}

// GeocodingConfig configures the provider cascade. A provider with an empty
// base URL (or missing credentials for premium) is left out of the chain.
type GeocodingConfig struct {
	PremiumAPIKey   string `envconfig:"PREMIUM_API_KEY"`
	PremiumBaseURL  string `envconfig:"PREMIUM_BASE_URL" default:"https://data.geopf.fr/geocodage"`
	PremiumTokenURL string `envconfig:"PREMIUM_TOKEN_URL" default:"https://data.geopf.fr/token"`

	BANBaseURL           string `envconfig:"BAN_BASE_URL" default:"https://api-adresse.data.gouv.fr"`
	LegacyBANBaseURL     string `envconfig:"LEGACY_BAN_BASE_URL"`
	NominatimBaseURL     string `envconfig:"NOMINATIM_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	IGNElevationBaseURL  string `envconfig:"IGN_ELEVATION_BASE_URL" default:"https://data.geopf.fr/altimetrie/1.0/calcul/alti/rest"`
	OpenElevationBaseURL string `envconfig:"OPEN_ELEVATION_BASE_URL" default:"https://api.open-elevation.com"`

	// Minimum spacing between requests to the same provider
	PremiumMinIntervalMs       int `envconfig:"PREMIUM_MIN_INTERVAL_MS" default:"100"`
	BANMinIntervalMs           int `envconfig:"BAN_MIN_INTERVAL_MS" default:"200"`
	LegacyBANMinIntervalMs     int `envconfig:"LEGACY_BAN_MIN_INTERVAL_MS" default:"500"`
	NominatimMinIntervalMs     int `envconfig:"NOMINATIM_MIN_INTERVAL_MS" default:"1100"`
	IGNElevationMinIntervalMs  int `envconfig:"IGN_ELEVATION_MIN_INTERVAL_MS" default:"200"`
	OpenElevationMinIntervalMs int `envconfig:"OPEN_ELEVATION_MIN_INTERVAL_MS" default:"1000"`

	EnforceRegion bool   `envconfig:"ENFORCE_REGION" default:"true"`
	RegionContext string `envconfig:"REGION_CONTEXT" default:", Occitanie, France"`

	ResultCacheTTLHours int `envconfig:"RESULT_CACHE_TTL_HOURS" default:"720"`
}

// MinIntervals returns the per-provider minimum request intervals
func (c GeocodingConfig) MinIntervals() map[ports.Provider]time.Duration {
	return map[ports.Provider]time.Duration{
		ports.ProviderPremium:       time.Duration(c.PremiumMinIntervalMs) * time.Millisecond,
		ports.ProviderBAN:           time.Duration(c.BANMinIntervalMs) * time.Millisecond,
		ports.ProviderLegacyBAN:     time.Duration(c.LegacyBANMinIntervalMs) * time.Millisecond,
		ports.ProviderOSM:           time.Duration(c.NominatimMinIntervalMs) * time.Millisecond,
		ports.ProviderIGNElevation:  time.Duration(c.IGNElevationMinIntervalMs) * time.Millisecond,
		ports.ProviderOpenElevation: time.Duration(c.OpenElevationMinIntervalMs) * time.Millisecond,
	}
}

// ResultCacheTTL returns the geocode result cache lifetime
func (c GeocodingConfig) ResultCacheTTL() time.Duration {
	return time.Duration(c.ResultCacheTTLHours) * time.Hour
}

// CacheType represents the type of cache backend to use
type CacheType int

const (
	CacheTypeUnknown CacheType = iota
	CacheTypeMemory
	CacheTypeRedis
)

// String returns the string representation of cache type
func (c CacheType) String() string {
	switch c {
	case CacheTypeMemory:
		return "memory"
	case CacheTypeRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// IsValid checks if the cache type is valid
func (c CacheType) IsValid() bool {
	return c == CacheTypeMemory || c == CacheTypeRedis
}

// CacheTypeFromString converts string to CacheType enum
func CacheTypeFromString(s string) CacheType {
	switch s {
	case "memory":
		return CacheTypeMemory
	case "redis":
		return CacheTypeRedis
	default:
		return CacheTypeUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for envconfig
func (c *CacheType) UnmarshalText(text []byte) error {
	*c = CacheTypeFromString(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler for envconfig
func (c CacheType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type CacheConfig struct {
	Type  CacheType   `envconfig:"CACHE_TYPE" default:"memory"`
	Redis RedisConfig `split_words:"true"`
}

type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string `envconfig:"REDIS_PASSWORD" default:""`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
}

type EnrichmentConfig struct {
	BatchConcurrency int `envconfig:"ENRICH_BATCH_CONCURRENCY" default:"4"`

	// Zero disables the background sweep
	ScheduleIntervalMinutes int `envconfig:"ENRICH_SCHEDULE_INTERVAL_MINUTES" default:"0"`
}

// ScheduleInterval returns the background sweep period
func (c EnrichmentConfig) ScheduleInterval() time.Duration {
	return time.Duration(c.ScheduleIntervalMinutes) * time.Minute
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Geocoding.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Enrichment.Validate()
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > maxPortNumber {
		return errors.NewConfigurationError("server port must be between 1 and 65535", nil)
	}
	return nil
}

func (c DatabaseConfig) Validate() error {
	if c.Path == "" {
		return errors.NewConfigurationError("database path cannot be empty", nil)
	}
	return nil
}

func (c GeocodingConfig) Validate() error {
	if c.BANBaseURL == "" && c.NominatimBaseURL == "" && c.PremiumAPIKey == "" && c.LegacyBANBaseURL == "" {
		return errors.NewConfigurationError("at least one geocoding provider must be configured", nil)
	}
	if c.PremiumAPIKey != "" && c.PremiumTokenURL == "" {
		return errors.NewConfigurationError("premium token URL is required when an API key is set", nil)
	}
	if c.ResultCacheTTLHours <= 0 {
		return errors.NewConfigurationError("result cache TTL must be positive", nil)
	}
	return nil
}

func (c CacheConfig) Validate() error {
	if !c.Type.IsValid() {
		return errors.NewConfigurationError("cache type must be memory or redis", nil)
	}
	if c.Type == CacheTypeRedis {
		if c.Redis.Addr == "" {
			return errors.NewConfigurationError("redis address cannot be empty", nil)
		}
		if c.Redis.DB < 0 || c.Redis.DB > maxRedisDB {
			return errors.NewConfigurationError("redis DB must be between 0 and 15", nil)
		}
	}
	return nil
}

func (c EnrichmentConfig) Validate() error {
	if c.BatchConcurrency <= 0 || c.BatchConcurrency > maxConcurrency {
		return errors.NewConfigurationError("batch concurrency must be between 1 and 64", nil)
	}
	if c.ScheduleIntervalMinutes < 0 {
		return errors.NewConfigurationError("schedule interval cannot be negative", nil)
	}
	return nil
}
