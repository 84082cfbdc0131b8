// Package ports defines the interfaces for external dependencies in our hexagonal architecture.
// These interfaces are implemented by adapters and faked for testing.
package ports

import (
	"context"
	"fmt"
	"strings"
)

// Provider identifies an external geocoding or elevation service
type Provider string

const (
	ProviderPremium       Provider = "premium"
	ProviderBAN           Provider = "ban"
	ProviderLegacyBAN     Provider = "legacy_ban"
	ProviderOSM           Provider = "osm"
	ProviderIGNElevation  Provider = "ign_elevation"
	ProviderOpenElevation Provider = "open_elevation"
)

// Operation is the kind of lookup a provider is asked to perform
type Operation int

const (
	OperationForward Operation = iota
	OperationReverse
	OperationElevation
)

// String returns the string representation of the operation
func (o Operation) String() string {
	switch o {
	case OperationForward:
		return "forward"
	case OperationReverse:
		return "reverse"
	case OperationElevation:
		return "elevation"
	default:
		return "unknown"
	}
}

// Coordinates is a WGS84 latitude/longitude pair
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodeQuery is an immutable lookup request: either free-form text or a
// coordinate pair. PostcodeHint optionally narrows forward searches.
type GeocodeQuery struct {
	Text         string
	Coordinates  *Coordinates
	PostcodeHint string
}

// CacheKey returns the normalized cache key for this query: trimmed
// lowercase text, or coordinates rounded to 6 decimal places.
func (q GeocodeQuery) CacheKey(op Operation) string {
	if q.Coordinates != nil {
		return fmt.Sprintf("%s:%.6f,%.6f", op.String(), q.Coordinates.Latitude, q.Coordinates.Longitude)
	}
	return fmt.Sprintf("%s:%s", op.String(), strings.ToLower(strings.TrimSpace(q.Text)))
}

// IsValid checks the query carries at least one usable reference
func (q GeocodeQuery) IsValid() bool {
	return q.Coordinates != nil || strings.TrimSpace(q.Text) != ""
}

// GeocodeResult is the normalized answer of a single provider lookup
type GeocodeResult struct {
	Latitude         float64           `json:"latitude"`
	Longitude        float64           `json:"longitude"`
	FormattedAddress string            `json:"formatted_address"`
	Confidence       float64           `json:"confidence"`
	City             string            `json:"city,omitempty"`
	Postcode         string            `json:"postcode,omitempty"`
	Department       string            `json:"department,omitempty"`
	ElevationMeters  *float64          `json:"elevation_meters,omitempty"`
	Provider         Provider          `json:"provider"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// GeocodeProvider is the uniform contract every provider client implements.
// Resolve returns a NotFound error when the service answered but had no
// usable feature, and a ProviderUnavailable error on transport failures,
// timeouts, non-2xx statuses and malformed payloads.
type GeocodeProvider interface {
	Resolve(ctx context.Context, query GeocodeQuery, op Operation) (*GeocodeResult, error)
	Name() Provider
	Supports(op Operation) bool
}

// GeocodeResolver runs ordered provider chains per operation, stopping at
// the first acceptable result. A NotFound error means every provider was
// exhausted; a ProviderUnavailable error means every provider in the chain
// was unreachable. No other error kinds escape the resolver.
type GeocodeResolver interface {
	Forward(ctx context.Context, query GeocodeQuery) (*GeocodeResult, error)
	Reverse(ctx context.Context, coords Coordinates) (*GeocodeResult, error)
	Elevation(ctx context.Context, coords Coordinates) (*GeocodeResult, error)
}

// RateLimiter enforces per-provider minimum request intervals. Wait blocks
// until the provider may issue its next request; it only fails when the
// context is cancelled.
type RateLimiter interface {
	Wait(ctx context.Context, provider Provider) error
}

// RegionValidator checks coordinates against the target region envelope and
// maps them to department codes
type RegionValidator interface {
	IsWithinRegion(lat, lon float64) bool
	DepartmentFor(lat, lon float64) (string, bool)
}

// GeocodeCache memoizes successful lookups keyed by normalized query. Put
// refuses to shadow an existing entry with a strictly worse result (lower
// confidence from a lower-priority provider).
type GeocodeCache interface {
	Get(ctx context.Context, key string) (*GeocodeResult, error)
	Put(ctx context.Context, key string, result *GeocodeResult) error
}
