package ports

// ApplicationPorts aggregates all ports for dependency injection
type ApplicationPorts struct {
	// Enrichment pipeline
	Resolver        GeocodeResolver
	Cache           GeocodeCache
	RateLimiter     RateLimiter
	RegionValidator RegionValidator

	// Persistence
	SpotRepository SpotRepository

	// Infrastructure
	Logger       Logger
	Metrics      EnrichmentMetrics
	CacheMetrics CacheMetrics
}
