package app

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"spotsapi.app/internal/adapters/database"
	"spotsapi.app/internal/adapters/external"
	"spotsapi.app/internal/adapters/infrastructure"
	"spotsapi.app/internal/config"
	"spotsapi.app/internal/core/region"
	"spotsapi.app/internal/ports"
)

// DependencyContainer wires adapters into the ports the use cases consume
type DependencyContainer struct {
	config   *config.Config
	db       *gorm.DB
	registry *prometheus.Registry
	ports    *ports.ApplicationPorts
}

func NewDependencyContainer(cfg *config.Config) (*DependencyContainer, error) {
	container := &DependencyContainer{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	if err := container.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if err := container.initializePorts(); err != nil {
		return nil, fmt.Errorf("initialize ports: %w", err)
	}

	return container, nil
}

// ApplicationPorts returns the wired ports
func (c *DependencyContainer) ApplicationPorts() *ports.ApplicationPorts {
	return c.ports
}

// Registry returns the prometheus registry serving /metrics
func (c *DependencyContainer) Registry() *prometheus.Registry {
	return c.registry
}

func (c *DependencyContainer) initializeDatabase() error {
	slog.Info("Opening SQLite database", "path", c.config.Database.Path)

	db, err := gorm.Open(sqlite.Open(c.config.Database.Path), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&database.SpotModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	c.db = db
	return nil
}

func (c *DependencyContainer) initializePorts() error {
	var logger ports.Logger = &infrastructure.SlogLoggerAdapter{}
	metrics := infrastructure.NewPrometheusMetricsAdapter(c.registry)

	limiter := external.NewIntervalRateLimiter(c.config.Geocoding.MinIntervals())
	regionValidator := region.NewValidator()

	cacheProvider, err := external.NewCacheProviderFactory().CreateCacheProvider(&c.config.Cache)
	if err != nil {
		return fmt.Errorf("create cache provider: %w", err)
	}
	geocodeCache := external.NewGeocodeCacheAdapter(cacheProvider, c.config.Geocoding.ResultCacheTTL())

	resolver, err := external.NewFallbackResolver(external.FallbackResolverConfig{
		Providers:     c.buildProviders(limiter, logger),
		Cache:         geocodeCache,
		Region:        regionValidator,
		EnforceRegion: c.config.Geocoding.EnforceRegion,
		Logger:        logger,
		Metrics:       metrics,
	})
	if err != nil {
		return fmt.Errorf("create fallback resolver: %w", err)
	}

	c.ports = &ports.ApplicationPorts{
		Resolver:        resolver,
		Cache:           geocodeCache,
		RateLimiter:     limiter,
		RegionValidator: regionValidator,
		SpotRepository:  database.NewSpotRepositoryAdapter(c.db),
		Logger:          logger,
		Metrics:         metrics,
	}
	if cacheMetrics, ok := cacheProvider.(ports.CacheMetrics); ok {
		c.ports.CacheMetrics = cacheMetrics
	}
	return nil
}

// buildProviders creates every configured provider client. Declaration order
// breaks priority ties inside the resolver chains.
func (c *DependencyContainer) buildProviders(limiter ports.RateLimiter, logger ports.Logger) []ports.GeocodeProvider {
	cfg := c.config.Geocoding
	var providers []ports.GeocodeProvider

	if cfg.PremiumAPIKey != "" {
		providers = append(providers, external.NewPremiumProviderAdapter(external.PremiumProviderParams{
			BaseURL:  cfg.PremiumBaseURL,
			TokenURL: cfg.PremiumTokenURL,
			APIKey:   cfg.PremiumAPIKey,
			Limiter:  limiter,
			Logger:   logger,
		}))
		logger.Debug("Created premium geocoding provider")
	}

	if cfg.BANBaseURL != "" {
		providers = append(providers, external.NewBANProviderAdapter(external.BANProviderParams{
			BaseURL: cfg.BANBaseURL,
			Limiter: limiter,
			Logger:  logger,
		}))
		logger.Debug("Created BAN geocoding provider")
	}

	if cfg.LegacyBANBaseURL != "" {
		providers = append(providers, external.NewLegacyBANProviderAdapter(external.LegacyBANProviderParams{
			BaseURL: cfg.LegacyBANBaseURL,
			Limiter: limiter,
			Logger:  logger,
		}))
		logger.Debug("Created legacy BAN geocoding provider")
	}

	if cfg.NominatimBaseURL != "" {
		providers = append(providers, external.NewNominatimProviderAdapter(external.NominatimProviderParams{
			BaseURL: cfg.NominatimBaseURL,
			Limiter: limiter,
			Logger:  logger,
		}))
		logger.Debug("Created Nominatim geocoding provider")
	}

	if cfg.IGNElevationBaseURL != "" {
		providers = append(providers, external.NewIGNElevationProviderAdapter(external.IGNElevationProviderParams{
			BaseURL: cfg.IGNElevationBaseURL,
			Limiter: limiter,
			Logger:  logger,
		}))
		logger.Debug("Created IGN elevation provider")
	}

	if cfg.OpenElevationBaseURL != "" {
		providers = append(providers, external.NewOpenElevationProviderAdapter(external.OpenElevationProviderParams{
			BaseURL: cfg.OpenElevationBaseURL,
			Limiter: limiter,
			Logger:  logger,
		}))
		logger.Debug("Created Open-Elevation provider")
	}

	return providers
}
