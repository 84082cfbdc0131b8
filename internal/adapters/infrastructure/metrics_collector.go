package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"spotsapi.app/internal/ports"
)

// PrometheusMetricsAdapter implements the EnrichmentMetrics port. The
// registerer is injected so tests can use a fresh registry instead of the
// process-wide default.
type PrometheusMetricsAdapter struct {
	providerCalls    *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	spotsEnriched    prometheus.Counter
	fieldsUnresolved *prometheus.CounterVec
}

// NewPrometheusMetricsAdapter creates enrichment metrics registered on reg
func NewPrometheusMetricsAdapter(reg prometheus.Registerer) *PrometheusMetricsAdapter {
	factory := promauto.With(reg)

	return &PrometheusMetricsAdapter{
		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spots_geocode_provider_calls_total",
				Help: "Geocoding provider calls by provider, operation and outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spots_geocode_cache_hits_total",
				Help: "The total number of geocode result cache hits",
			},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spots_geocode_cache_misses_total",
				Help: "The total number of geocode result cache misses",
			},
		),
		spotsEnriched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spots_enriched_total",
				Help: "The total number of fully enriched spots",
			},
		),
		fieldsUnresolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spots_fields_unresolved_total",
				Help: "Enrichment fields no provider could resolve",
			},
			[]string{"field"},
		),
	}
}

// RecordProviderCall counts a provider call outcome
func (m *PrometheusMetricsAdapter) RecordProviderCall(provider ports.Provider, op ports.Operation, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.providerCalls.WithLabelValues(string(provider), op.String(), outcome).Inc()
}

// RecordCacheHit counts a result cache hit
func (m *PrometheusMetricsAdapter) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordCacheMiss counts a result cache miss
func (m *PrometheusMetricsAdapter) RecordCacheMiss() {
	m.cacheMisses.Inc()
}

// RecordSpotEnriched counts a fully resolved spot
func (m *PrometheusMetricsAdapter) RecordSpotEnriched() {
	m.spotsEnriched.Inc()
}

// RecordFieldUnresolved counts a field left unresolved after the full cascade
func (m *PrometheusMetricsAdapter) RecordFieldUnresolved(field string) {
	m.fieldsUnresolved.WithLabelValues(field).Inc()
}
