package app

import (
	"context"
	"time"

	"spotsapi.app/internal/core/enrichment"
	"spotsapi.app/internal/ports"
)

// EnrichmentScheduler periodically sweeps the spot store for records that
// have not been enriched and runs them through the pipeline. Disabled when
// the configured interval is zero.
type EnrichmentScheduler struct {
	interval   time.Duration
	enrichment *enrichment.UseCase
	spots      ports.SpotRepository
	logger     ports.Logger
}

func NewEnrichmentScheduler(interval time.Duration, uc *enrichment.UseCase, spots ports.SpotRepository, logger ports.Logger) *EnrichmentScheduler {
	return &EnrichmentScheduler{
		interval:   interval,
		enrichment: uc,
		spots:      spots,
		logger:     logger,
	}
}

// Start runs the sweep loop until the context is cancelled
func (s *EnrichmentScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	s.logger.Info("Starting enrichment scheduler", ports.F("interval", s.interval.String()))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Enrichment scheduler stopped")
				return
			case <-ticker.C:
				s.runSweep(ctx)
			}
		}
	}()
}

// runSweep enriches every currently unenriched spot and persists the results
func (s *EnrichmentScheduler) runSweep(ctx context.Context) {
	records, err := s.spots.FindUnenriched(ctx)
	if err != nil {
		s.logger.Error("Scheduled sweep failed to list spots", ports.F("error", err.Error()))
		return
	}
	if len(records) == 0 {
		return
	}

	partials := make([]enrichment.PartialSpot, 0, len(records))
	for i := range records {
		partials = append(partials, enrichment.PartialSpot{
			Name:            records[i].Name,
			Category:        records[i].Category,
			Latitude:        records[i].Latitude,
			Longitude:       records[i].Longitude,
			Address:         records[i].Address,
			Department:      records[i].Department,
			ElevationMeters: records[i].ElevationMeters,
		})
	}

	enriched, report, err := s.enrichment.EnrichBatch(ctx, partials)
	if err != nil {
		s.logger.Error("Scheduled sweep failed", ports.F("error", err.Error()))
		return
	}

	saved := 0
	for i := range records {
		if enriched[i] == nil {
			continue
		}
		enriched[i].ApplyToRecord(&records[i])
		if saveErr := s.spots.Save(ctx, &records[i]); saveErr != nil {
			s.logger.Warn("Failed to save enriched spot",
				ports.F("uuid", records[i].UUID),
				ports.F("error", saveErr.Error()))
			continue
		}
		saved++
	}

	s.logger.Info("Scheduled enrichment sweep finished",
		ports.F("total", report.Total),
		ports.F("fully_resolved", report.FullyResolved),
		ports.F("saved", saved),
		ports.F("providers_exhausted", report.ProvidersExhausted))
}
