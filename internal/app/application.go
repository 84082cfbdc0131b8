package app

import (
	"context"
	"fmt"
	"log/slog"

	"spotsapi.app/internal/adapters/api"
	"spotsapi.app/internal/config"
	"spotsapi.app/internal/core/enrichment"
	"spotsapi.app/internal/ports"
)

// Application assembles configuration, ports and the HTTP adapter
type Application struct {
	config            *config.Config
	enrichmentUseCase *enrichment.UseCase
	httpServer        *api.HTTPServerAdapter
	scheduler         *EnrichmentScheduler
	ports             *ports.ApplicationPorts
}

func NewApplication() (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return NewApplicationWithConfig(cfg)
}

func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	app := &Application{config: cfg}

	slog.Info("Initializing application ports...")
	deps, err := NewDependencyContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}
	app.ports = deps.ApplicationPorts()

	slog.Info("Initializing use cases...")
	enrichmentUseCase, err := enrichment.NewUseCase(enrichment.UseCaseDependencies{
		Resolver:         app.ports.Resolver,
		Region:           app.ports.RegionValidator,
		Logger:           app.ports.Logger,
		Metrics:          app.ports.Metrics,
		RegionContext:    cfg.Geocoding.RegionContext,
		BatchConcurrency: cfg.Enrichment.BatchConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("create enrichment use case: %w", err)
	}
	app.enrichmentUseCase = enrichmentUseCase

	slog.Info("Initializing HTTP adapter...")
	httpServer, err := api.NewHTTPServerAdapter(api.ServerOptions{
		Config:         api.ServerConfig{Port: cfg.Server.Port},
		Enrichment:     enrichmentUseCase,
		SpotRepository: app.ports.SpotRepository,
		CacheMetrics:   app.ports.CacheMetrics,
		Gatherer:       deps.Registry(),
	})
	if err != nil {
		return nil, fmt.Errorf("create HTTP server: %w", err)
	}
	app.httpServer = httpServer

	app.scheduler = NewEnrichmentScheduler(
		cfg.Enrichment.ScheduleInterval(),
		enrichmentUseCase,
		app.ports.SpotRepository,
		app.ports.Logger,
	)

	return app, nil
}

// Config returns the loaded configuration
func (a *Application) Config() *config.Config {
	return a.config
}

// EnrichmentUseCase returns the enrichment orchestrator, for callers such as
// batch jobs that bypass HTTP
func (a *Application) EnrichmentUseCase() *enrichment.UseCase {
	return a.enrichmentUseCase
}

// Start launches the background scheduler and runs the HTTP server until it
// fails or the process is stopped
func (a *Application) Start(ctx context.Context) error {
	a.scheduler.Start(ctx)
	return a.httpServer.Start(ctx)
}
