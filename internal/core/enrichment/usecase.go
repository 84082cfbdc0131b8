package enrichment

import (
	"context"
	"sync"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

var (
	errEmptySpot          = errors.NewValidationError("spot needs a name or coordinates")
	errInvalidCoordinates = errors.NewValidationError("coordinates out of range")
)

const defaultBatchConcurrency = 4

// UseCase orchestrates enrichment of partial spot records. It owns no
// network logic itself; all provider access goes through the injected
// resolver so tests can run with fresh, isolated state.
type UseCase struct {
	resolver         ports.GeocodeResolver
	region           ports.RegionValidator
	logger           ports.Logger
	metrics          ports.EnrichmentMetrics
	regionContext    string
	batchConcurrency int
}

type UseCaseDependencies struct {
	Resolver ports.GeocodeResolver
	Region   ports.RegionValidator
	Logger   ports.Logger
	Metrics  ports.EnrichmentMetrics

	// RegionContext is appended to free-form name hints to bias forward
	// geocoding, e.g. ", Occitanie, France"
	RegionContext    string
	BatchConcurrency int
}

func NewUseCase(deps UseCaseDependencies) (*UseCase, error) {
	if deps.Resolver == nil {
		return nil, errors.NewValidationError("resolver is required")
	}
	if deps.Region == nil {
		return nil, errors.NewValidationError("region validator is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}

	concurrency := deps.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	return &UseCase{
		resolver:         deps.Resolver,
		region:           deps.Region,
		logger:           deps.Logger,
		metrics:          deps.Metrics,
		regionContext:    deps.RegionContext,
		batchConcurrency: concurrency,
	}, nil
}

// Enrich resolves the missing geographic fields of a partial spot. Fields no
// provider could supply remain nil; partial enrichment is success. Only a
// structurally invalid input (neither name nor coordinates) returns an error.
func (uc *UseCase) Enrich(ctx context.Context, partial PartialSpot) (*EnrichedSpot, error) {
	spot, _, err := uc.enrich(ctx, partial)
	return spot, err
}

// enrich additionally reports whether every attempted resolver call failed
// with ProviderUnavailable, so batch runs can log outages once.
func (uc *UseCase) enrich(ctx context.Context, partial PartialSpot) (*EnrichedSpot, bool, error) {
	partial.NormalizeName()
	if err := partial.IsValid(); err != nil {
		return nil, false, err
	}

	spot := &EnrichedSpot{
		Name:            partial.Name,
		Category:        partial.Category,
		Latitude:        partial.Latitude,
		Longitude:       partial.Longitude,
		Address:         partial.Address,
		Department:      partial.Department,
		ElevationMeters: partial.ElevationMeters,
		Provenance:      map[string]ports.Provider{},
	}

	attempted := 0
	unavailable := 0

	// Step 1: forward geocode when coordinates are missing
	if !partial.HasCoordinates() {
		attempted++
		result, err := uc.resolver.Forward(ctx, ports.GeocodeQuery{Text: partial.Name + uc.regionContext})
		switch {
		case err == nil:
			uc.applyForwardResult(spot, result)
		case errors.IsProviderUnavailableError(err):
			unavailable++
		case !errors.IsNotFoundError(err):
			uc.logger.Warn("forward geocode failed",
				ports.F("name", partial.Name),
				ports.F("error", err.Error()))
		}
	}

	// Steps 2-3 depend on coordinates resolved above or supplied by the caller
	if spot.Latitude != nil && spot.Longitude != nil {
		coords := ports.Coordinates{Latitude: *spot.Latitude, Longitude: *spot.Longitude}

		if spot.ElevationMeters == nil {
			attempted++
			result, err := uc.resolver.Elevation(ctx, coords)
			switch {
			case err == nil && result.ElevationMeters != nil:
				spot.ElevationMeters = result.ElevationMeters
				spot.Provenance[FieldElevation] = result.Provider
			case err != nil && errors.IsProviderUnavailableError(err):
				unavailable++
			}
		}

		if spot.Address == nil {
			attempted++
			result, err := uc.resolver.Reverse(ctx, coords)
			switch {
			case err == nil:
				uc.applyReverseResult(spot, result)
			case errors.IsProviderUnavailableError(err):
				unavailable++
			}
		}

		// Step 4: free offline fallback before giving up on the department
		if spot.Department == nil {
			if code, ok := uc.region.DepartmentFor(coords.Latitude, coords.Longitude); ok {
				spot.Department = &code
				spot.Provenance[FieldDepartment] = DepartmentProvenanceOffline
			}
		}
	}

	uc.collectUnresolved(spot)
	if len(spot.Unresolved) == 0 {
		uc.metrics.RecordSpotEnriched()
	} else {
		for _, field := range spot.Unresolved {
			uc.metrics.RecordFieldUnresolved(field)
		}
	}

	allUnavailable := attempted > 0 && unavailable == attempted
	return spot, allUnavailable, nil
}

// applyForwardResult merges a forward geocode answer into the spot
func (uc *UseCase) applyForwardResult(spot *EnrichedSpot, result *ports.GeocodeResult) {
	spot.Latitude = &result.Latitude
	spot.Longitude = &result.Longitude
	spot.Provenance[FieldLatitude] = result.Provider
	spot.Provenance[FieldLongitude] = result.Provider

	spot.Confidence = &result.Confidence
	spot.Provenance[FieldConfidence] = result.Provider

	if result.FormattedAddress != "" && spot.Address == nil {
		addr := result.FormattedAddress
		spot.Address = &addr
		spot.Provenance[FieldAddress] = result.Provider
	}
	uc.applyLocalityFields(spot, result)
}

// applyReverseResult merges a reverse geocode answer into the spot without
// touching the coordinates that produced it
func (uc *UseCase) applyReverseResult(spot *EnrichedSpot, result *ports.GeocodeResult) {
	if result.FormattedAddress != "" {
		addr := result.FormattedAddress
		spot.Address = &addr
		spot.Provenance[FieldAddress] = result.Provider
	}
	uc.applyLocalityFields(spot, result)
}

func (uc *UseCase) applyLocalityFields(spot *EnrichedSpot, result *ports.GeocodeResult) {
	if result.City != "" && spot.City == nil {
		city := result.City
		spot.City = &city
		spot.Provenance[FieldCity] = result.Provider
	}
	if result.Postcode != "" && spot.Postcode == nil {
		postcode := result.Postcode
		spot.Postcode = &postcode
		spot.Provenance[FieldPostcode] = result.Provider
	}
	if result.Department != "" && spot.Department == nil {
		dept := result.Department
		spot.Department = &dept
		spot.Provenance[FieldDepartment] = result.Provider
	}
}

func (uc *UseCase) collectUnresolved(spot *EnrichedSpot) {
	spot.Unresolved = nil
	if spot.Latitude == nil || spot.Longitude == nil {
		spot.Unresolved = append(spot.Unresolved, FieldLatitude, FieldLongitude)
	}
	if spot.Address == nil {
		spot.Unresolved = append(spot.Unresolved, FieldAddress)
	}
	if spot.Department == nil {
		spot.Unresolved = append(spot.Unresolved, FieldDepartment)
	}
	if spot.ElevationMeters == nil {
		spot.Unresolved = append(spot.Unresolved, FieldElevation)
	}
}

// EnrichBatch enriches independent spots concurrently with bounded workers.
// Input order is preserved in the output. An all-providers-down condition is
// logged once per batch, not once per spot.
func (uc *UseCase) EnrichBatch(ctx context.Context, partials []PartialSpot) ([]*EnrichedSpot, *BatchReport, error) {
	if len(partials) == 0 {
		return nil, &BatchReport{UnresolvedBySpot: map[string][]string{}}, nil
	}

	results := make([]*EnrichedSpot, len(partials))
	report := &BatchReport{
		Total:            len(partials),
		UnresolvedBySpot: map[string][]string{},
	}

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		outageOnce  sync.Once
		outagesSeen bool
	)

	sem := make(chan struct{}, uc.batchConcurrency)

	for i := range partials {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			spot, allUnavailable, err := uc.enrich(ctx, partials[idx])
			if err != nil {
				uc.logger.Warn("skipping invalid spot in batch",
					ports.F("name", partials[idx].Name),
					ports.F("error", err.Error()))
				return
			}

			if allUnavailable {
				outageOnce.Do(func() {
					uc.logger.Error("all providers unavailable during batch enrichment")
					mu.Lock()
					outagesSeen = true
					mu.Unlock()
				})
			}

			mu.Lock()
			results[idx] = spot
			if spot.FullyResolved() {
				report.FullyResolved++
			} else {
				report.UnresolvedBySpot[spot.Name] = spot.Unresolved
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	report.ProvidersExhausted = outagesSeen
	return results, report, nil
}
