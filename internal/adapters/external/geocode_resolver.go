package external

import (
	"context"
	"sort"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// FallbackResolver runs ordered provider chains per operation, stopping at
// the first acceptable result. It consults the result cache before any
// network dispatch and populates it afterwards. Provider outages are skipped
// without being recorded as "not found"; only two error kinds escape:
// NotFound when every provider was exhausted, and ProviderUnavailable when
// every provider in the chain was unreachable.
type FallbackResolver struct {
	forwardChain   []ports.GeocodeProvider
	reverseChain   []ports.GeocodeProvider
	elevationChain []ports.GeocodeProvider
	cache          ports.GeocodeCache
	region         ports.RegionValidator
	enforceRegion  bool
	logger         ports.Logger
	metrics        ports.EnrichmentMetrics
}

// FallbackResolverConfig holds configuration for creating the resolver
type FallbackResolverConfig struct {
	// Providers are filtered by operation support and ordered by priority
	// rank; ties keep slice order
	Providers     []ports.GeocodeProvider
	Cache         ports.GeocodeCache
	Region        ports.RegionValidator
	EnforceRegion bool
	Logger        ports.Logger
	Metrics       ports.EnrichmentMetrics
}

// NewFallbackResolver creates a resolver with per-operation provider chains
func NewFallbackResolver(cfg FallbackResolverConfig) (*FallbackResolver, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.NewConfigurationError("at least one provider is required", nil)
	}
	if cfg.Cache == nil {
		return nil, errors.NewConfigurationError("result cache is required", nil)
	}
	if cfg.EnforceRegion && cfg.Region == nil {
		return nil, errors.NewConfigurationError("region validator is required when region enforcement is on", nil)
	}
	if cfg.Logger == nil {
		return nil, errors.NewConfigurationError("logger is required", nil)
	}
	if cfg.Metrics == nil {
		return nil, errors.NewConfigurationError("metrics is required", nil)
	}

	resolver := &FallbackResolver{
		cache:         cfg.Cache,
		region:        cfg.Region,
		enforceRegion: cfg.EnforceRegion,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}

	resolver.forwardChain = chainFor(cfg.Providers, ports.OperationForward)
	resolver.reverseChain = chainFor(cfg.Providers, ports.OperationReverse)
	resolver.elevationChain = chainFor(cfg.Providers, ports.OperationElevation)

	return resolver, nil
}

// chainFor filters providers supporting the operation and orders them by
// ascending priority rank, keeping declaration order on ties
func chainFor(providers []ports.GeocodeProvider, op ports.Operation) []ports.GeocodeProvider {
	var chain []ports.GeocodeProvider
	for _, p := range providers {
		if p.Supports(op) {
			chain = append(chain, p)
		}
	}
	sort.SliceStable(chain, func(i, j int) bool {
		return PriorityRank(chain[i].Name()) < PriorityRank(chain[j].Name())
	})
	return chain
}

// Forward resolves a text hint to coordinates
func (r *FallbackResolver) Forward(ctx context.Context, query ports.GeocodeQuery) (*ports.GeocodeResult, error) {
	return r.resolve(ctx, query, ports.OperationForward, r.forwardChain)
}

// Reverse resolves coordinates to an address
func (r *FallbackResolver) Reverse(ctx context.Context, coords ports.Coordinates) (*ports.GeocodeResult, error) {
	query := ports.GeocodeQuery{Coordinates: &coords}
	return r.resolve(ctx, query, ports.OperationReverse, r.reverseChain)
}

// Elevation resolves coordinates to an elevation
func (r *FallbackResolver) Elevation(ctx context.Context, coords ports.Coordinates) (*ports.GeocodeResult, error) {
	query := ports.GeocodeQuery{Coordinates: &coords}
	return r.resolve(ctx, query, ports.OperationElevation, r.elevationChain)
}

func (r *FallbackResolver) resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation, chain []ports.GeocodeProvider) (*ports.GeocodeResult, error) {
	if !query.IsValid() {
		return nil, errors.NewValidationError("query needs text or coordinates")
	}
	if len(chain) == 0 {
		return nil, errors.NewConfigurationError("no providers configured for operation "+op.String(), nil)
	}

	cacheKey := query.CacheKey(op)
	if cached, err := r.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		r.metrics.RecordCacheHit()
		r.logger.Debug("geocode cache hit",
			ports.F("operation", op.String()),
			ports.F("provider", cached.Provider))
		return cached, nil
	}
	r.metrics.RecordCacheMiss()

	unavailable := 0
	for _, provider := range chain {
		result, err := provider.Resolve(ctx, query, op)
		if err == nil {
			if r.rejectOutOfRegion(result, op) {
				r.metrics.RecordProviderCall(provider.Name(), op, false)
				r.logger.Debug("provider result outside region, trying next",
					ports.F("provider", provider.Name()),
					ports.F("lat", result.Latitude),
					ports.F("lon", result.Longitude))
				continue
			}

			r.metrics.RecordProviderCall(provider.Name(), op, true)
			if cacheErr := r.cache.Put(ctx, cacheKey, result); cacheErr != nil {
				r.logger.Warn("failed to cache geocode result",
					ports.F("provider", provider.Name()),
					ports.F("error", cacheErr.Error()))
			}
			return result, nil
		}

		r.metrics.RecordProviderCall(provider.Name(), op, false)
		switch errors.GetErrorType(err) {
		case errors.NotFoundError, errors.RegionMismatchError:
			r.logger.Debug("provider has no match, trying next",
				ports.F("provider", provider.Name()),
				ports.F("operation", op.String()))
		case errors.ProviderUnavailableError, errors.AuthenticationError:
			unavailable++
			r.logger.Warn("provider unavailable, trying next",
				ports.F("provider", provider.Name()),
				ports.F("operation", op.String()),
				ports.F("error", err.Error()))
		default:
			// Malformed query for this provider; do not let it poison the chain
			r.logger.Warn("provider rejected query, trying next",
				ports.F("provider", provider.Name()),
				ports.F("error", err.Error()))
		}
	}

	if unavailable == len(chain) {
		return nil, errors.NewProviderUnavailableError("all providers unavailable for operation "+op.String(), nil)
	}
	return nil, errors.NewNotFoundError("no provider resolved the query")
}

// rejectOutOfRegion applies the region constraint to geocoding results.
// Elevation lookups echo the caller's coordinates and are never filtered.
func (r *FallbackResolver) rejectOutOfRegion(result *ports.GeocodeResult, op ports.Operation) bool {
	if !r.enforceRegion || op == ports.OperationElevation {
		return false
	}
	return !r.region.IsWithinRegion(result.Latitude, result.Longitude)
}
