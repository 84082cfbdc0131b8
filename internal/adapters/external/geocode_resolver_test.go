package external

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

func newTestResolver(t *testing.T, cfg FallbackResolverConfig) *FallbackResolver {
	t.Helper()
	if cfg.Cache == nil {
		cfg.Cache = NewGeocodeCacheAdapter(NewMemoryCacheProvider(), time.Hour)
	}
	if cfg.Region == nil {
		cfg.Region = allRegion{}
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = newCountingMetrics()
	}
	resolver, err := NewFallbackResolver(cfg)
	require.NoError(t, err)
	return resolver
}

func forwardResult(provider ports.Provider, confidence float64) *ports.GeocodeResult {
	return &ports.GeocodeResult{
		Latitude:         43.6508,
		Longitude:        3.3857,
		FormattedAddress: "Lac du Salagou, Clermont-l'Hérault",
		Confidence:       confidence,
		City:             "Clermont-l'Hérault",
		Postcode:         "34800",
		Department:       "34",
		Provider:         provider,
	}
}

func TestNewFallbackResolver_RequiresProviders(t *testing.T) {
	_, err := NewFallbackResolver(FallbackResolverConfig{
		Cache:   NewGeocodeCacheAdapter(NewMemoryCacheProvider(), time.Hour),
		Logger:  nopLogger{},
		Metrics: newCountingMetrics(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationError, errors.GetErrorType(err))
}

func TestNewFallbackResolver_RequiresRegionWhenEnforcing(t *testing.T) {
	_, err := NewFallbackResolver(FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{
			&stubProvider{name: ports.ProviderBAN, ops: []ports.Operation{ports.OperationForward}},
		},
		Cache:         NewGeocodeCacheAdapter(NewMemoryCacheProvider(), time.Hour),
		EnforceRegion: true,
		Logger:        nopLogger{},
		Metrics:       newCountingMetrics(),
	})

	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationError, errors.GetErrorType(err))
}

func TestForward_HigherPriorityProviderWins(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	ban := &stubProvider{name: ports.ProviderBAN, ops: forwardOps, result: forwardResult(ports.ProviderBAN, 0.8)}
	premium := &stubProvider{name: ports.ProviderPremium, ops: forwardOps, result: forwardResult(ports.ProviderPremium, 0.9)}

	// Declared BAN-first on purpose; ranks must reorder the chain
	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{ban, premium},
	})

	result, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "Lac du Salagou"})

	require.NoError(t, err)
	assert.Equal(t, ports.ProviderPremium, result.Provider)
	assert.Equal(t, 1, premium.callCount())
	assert.Equal(t, 0, ban.callCount())
}

func TestForward_FallsBackWhenProviderUnavailable(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	premium := &stubProvider{
		name: ports.ProviderPremium,
		ops:  forwardOps,
		err:  errors.NewProviderUnavailableError("connection refused", nil),
	}
	ban := &stubProvider{name: ports.ProviderBAN, ops: forwardOps, result: forwardResult(ports.ProviderBAN, 0.8)}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{premium, ban},
	})

	result, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "Lac du Salagou"})

	require.NoError(t, err)
	assert.Equal(t, ports.ProviderBAN, result.Provider)
	assert.Equal(t, 1, premium.callCount())
	assert.Equal(t, 1, ban.callCount())
}

func TestForward_FallsBackWhenProviderHasNoMatch(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	premium := &stubProvider{
		name: ports.ProviderPremium,
		ops:  forwardOps,
		err:  errors.NewNotFoundError("no features"),
	}
	osm := &stubProvider{name: ports.ProviderOSM, ops: forwardOps, result: forwardResult(ports.ProviderOSM, 0.5)}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{premium, osm},
	})

	result, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "Gorges d'Héric"})

	require.NoError(t, err)
	assert.Equal(t, ports.ProviderOSM, result.Provider)
}

func TestForward_NotFoundWhenChainExhausted(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	premium := &stubProvider{
		name: ports.ProviderPremium,
		ops:  forwardOps,
		err:  errors.NewProviderUnavailableError("timeout", nil),
	}
	ban := &stubProvider{name: ports.ProviderBAN, ops: forwardOps, err: errors.NewNotFoundError("no features")}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{premium, ban},
	})

	result, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "nowhere interesting"})

	require.Error(t, err)
	assert.Nil(t, result)
	// One provider answered "no such place", so the query is a genuine miss,
	// not an outage
	assert.True(t, errors.IsNotFoundError(err))
}

func TestForward_UnavailableWhenEveryProviderDown(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	premium := &stubProvider{
		name: ports.ProviderPremium,
		ops:  forwardOps,
		err:  errors.NewProviderUnavailableError("timeout", nil),
	}
	ban := &stubProvider{
		name: ports.ProviderBAN,
		ops:  forwardOps,
		err:  errors.NewProviderUnavailableError("503", nil),
	}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{premium, ban},
	})

	_, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "Lac du Salagou"})

	require.Error(t, err)
	assert.True(t, errors.IsProviderUnavailableError(err))
}

func TestForward_AuthenticationFailureCountsAsUnavailable(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	premium := &stubProvider{
		name: ports.ProviderPremium,
		ops:  forwardOps,
		err:  errors.NewAuthenticationError("invalid credentials", nil),
	}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{premium},
	})

	_, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "Pont du Gard"})

	require.Error(t, err)
	assert.True(t, errors.IsProviderUnavailableError(err))
}

func TestForward_CacheHitSkipsProviders(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	ban := &stubProvider{name: ports.ProviderBAN, ops: forwardOps, result: forwardResult(ports.ProviderBAN, 0.8)}
	metrics := newCountingMetrics()

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{ban},
		Metrics:   metrics,
	})

	query := ports.GeocodeQuery{Text: "Lac du Salagou"}
	first, err := resolver.Forward(context.Background(), query)
	require.NoError(t, err)

	second, err := resolver.Forward(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, ban.callCount())
	assert.Equal(t, 1, metrics.cacheHits)
	assert.Equal(t, 1, metrics.cacheMisses)
}

func TestForward_CacheKeyNormalization(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	ban := &stubProvider{name: ports.ProviderBAN, ops: forwardOps, result: forwardResult(ports.ProviderBAN, 0.8)}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{ban},
	})

	_, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "Lac du Salagou"})
	require.NoError(t, err)

	// Same text modulo case and whitespace must hit the cached entry
	_, err = resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "  lac du salagou "})
	require.NoError(t, err)

	assert.Equal(t, 1, ban.callCount())
}

func TestForward_OutOfRegionResultTriesNextProvider(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	paris := forwardResult(ports.ProviderPremium, 0.9)
	paris.Latitude = 48.8566
	paris.Longitude = 2.3522
	premium := &stubProvider{name: ports.ProviderPremium, ops: forwardOps, result: paris}
	ban := &stubProvider{name: ports.ProviderBAN, ops: forwardOps, result: forwardResult(ports.ProviderBAN, 0.8)}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers:     []ports.GeocodeProvider{premium, ban},
		Region:        boxRegion{},
		EnforceRegion: true,
	})

	result, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "rue de la Paix"})

	require.NoError(t, err)
	assert.Equal(t, ports.ProviderBAN, result.Provider)
	assert.Equal(t, 1, premium.callCount())
}

func TestForward_RegionFilterOffKeepsAnyResult(t *testing.T) {
	forwardOps := []ports.Operation{ports.OperationForward}
	paris := forwardResult(ports.ProviderPremium, 0.9)
	paris.Latitude = 48.8566
	paris.Longitude = 2.3522
	premium := &stubProvider{name: ports.ProviderPremium, ops: forwardOps, result: paris}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers:     []ports.GeocodeProvider{premium},
		Region:        boxRegion{},
		EnforceRegion: false,
	})

	result, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "rue de la Paix"})

	require.NoError(t, err)
	assert.Equal(t, 48.8566, result.Latitude)
}

func TestElevation_NeverRegionFiltered(t *testing.T) {
	elevation := 145.2
	outOfBox := &ports.GeocodeResult{
		Latitude:        48.8566,
		Longitude:       2.3522,
		Confidence:      0.9,
		ElevationMeters: &elevation,
		Provider:        ports.ProviderIGNElevation,
	}
	ign := &stubProvider{
		name:   ports.ProviderIGNElevation,
		ops:    []ports.Operation{ports.OperationElevation},
		result: outOfBox,
	}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers:     []ports.GeocodeProvider{ign},
		Region:        boxRegion{},
		EnforceRegion: true,
	})

	result, err := resolver.Elevation(context.Background(), ports.Coordinates{Latitude: 48.8566, Longitude: 2.3522})

	require.NoError(t, err)
	require.NotNil(t, result.ElevationMeters)
	assert.Equal(t, 145.2, *result.ElevationMeters)
}

func TestResolve_ChainsFilteredByOperationSupport(t *testing.T) {
	ban := &stubProvider{
		name:   ports.ProviderBAN,
		ops:    []ports.Operation{ports.OperationForward, ports.OperationReverse},
		result: forwardResult(ports.ProviderBAN, 0.8),
	}
	ign := &stubProvider{
		name:   ports.ProviderIGNElevation,
		ops:    []ports.Operation{ports.OperationElevation},
		result: forwardResult(ports.ProviderIGNElevation, 0.9),
	}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{ban, ign},
	})

	_, err := resolver.Reverse(context.Background(), ports.Coordinates{Latitude: 43.6508, Longitude: 3.3857})
	require.NoError(t, err)

	assert.Equal(t, 1, ban.callCount())
	assert.Equal(t, 0, ign.callCount())
}

func TestForward_RejectsEmptyQuery(t *testing.T) {
	ban := &stubProvider{
		name:   ports.ProviderBAN,
		ops:    []ports.Operation{ports.OperationForward},
		result: forwardResult(ports.ProviderBAN, 0.8),
	}

	resolver := newTestResolver(t, FallbackResolverConfig{
		Providers: []ports.GeocodeProvider{ban},
	})

	_, err := resolver.Forward(context.Background(), ports.GeocodeQuery{Text: "   "})

	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Equal(t, 0, ban.callCount())
}
