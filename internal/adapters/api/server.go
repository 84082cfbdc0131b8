// Package api provides the HTTP adapter: it translates incoming requests to
// use case calls and maps application errors to HTTP statuses.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"spotsapi.app/internal/core/enrichment"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port int
}

// EnrichmentUseCase is the use case surface the HTTP adapter depends on
type EnrichmentUseCase interface {
	Enrich(ctx context.Context, partial enrichment.PartialSpot) (*enrichment.EnrichedSpot, error)
	EnrichBatch(ctx context.Context, partials []enrichment.PartialSpot) ([]*enrichment.EnrichedSpot, *enrichment.BatchReport, error)
}

// HTTPServerAdapter implements the HTTP server using Gin
type HTTPServerAdapter struct {
	router       *gin.Engine
	config       ServerConfig
	enrichment   EnrichmentUseCase
	spots        ports.SpotRepository
	cacheMetrics ports.CacheMetrics
	gatherer     prometheus.Gatherer
}

// ServerOptions represents options for creating the HTTP server
type ServerOptions struct {
	Config         ServerConfig
	Enrichment     EnrichmentUseCase
	SpotRepository ports.SpotRepository
	CacheMetrics   ports.CacheMetrics
	Gatherer       prometheus.Gatherer
}

// Validate checks if all required dependencies are provided
func (opts *ServerOptions) Validate() error {
	if opts.Enrichment == nil {
		return errors.NewValidationError("enrichment use case is required")
	}
	if opts.SpotRepository == nil {
		return errors.NewValidationError("spot repository is required")
	}
	return nil
}

// NewHTTPServerAdapter creates a new HTTP server adapter
func NewHTTPServerAdapter(opts ServerOptions) (*HTTPServerAdapter, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server options: %w", err)
	}

	server := &HTTPServerAdapter{
		router:       gin.Default(),
		config:       opts.Config,
		enrichment:   opts.Enrichment,
		spots:        opts.SpotRepository,
		cacheMetrics: opts.CacheMetrics,
		gatherer:     opts.Gatherer,
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *HTTPServerAdapter) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/spots", s.listSpots)
		api.POST("/spots", s.createSpot)
		api.GET("/spots/:uuid", s.getSpot)
		api.DELETE("/spots/:uuid", s.deleteSpot)
		api.POST("/spots/:uuid/enrich", s.enrichSpot)
		api.POST("/spots/enrich-all", s.enrichAllSpots)
		api.POST("/enrich", s.enrichAdHoc)
		if s.cacheMetrics != nil {
			api.GET("/cache/stats", s.cacheStats)
		}
	}

	s.router.GET("/health", s.health)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// Start begins the HTTP server
func (s *HTTPServerAdapter) Start(ctx context.Context) error {
	slog.Info("Starting HTTP server", "port", s.config.Port)
	return s.router.Run(fmt.Sprintf(":%d", s.config.Port))
}

// GetRouter returns the router for testing purposes
func (s *HTTPServerAdapter) GetRouter() *gin.Engine {
	return s.router
}

// health handles GET /health requests
func (s *HTTPServerAdapter) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cacheStats handles GET /api/cache/stats requests
func (s *HTTPServerAdapter) cacheStats(c *gin.Context) {
	stats := s.cacheMetrics.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"total_ops": stats.TotalOps,
		"hit_ratio": stats.HitRatio,
	})
}
