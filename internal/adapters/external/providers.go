// Package external provides adapters for external services: the geocoding
// and elevation provider clients, the fallback resolver, the per-provider
// rate limiter and the result cache backends.
package external

import (
	"net/http"
	"strings"
	"time"

	"spotsapi.app/internal/ports"
)

// HTTPClient interface for HTTP requests (for testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const requestTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// Default confidence per provider tier, used when the service reports no
// score of its own. Premium outranks BAN, which outranks the legacy endpoint
// and OSM.
var defaultConfidence = map[ports.Provider]float64{
	ports.ProviderPremium:       0.9,
	ports.ProviderBAN:           0.8,
	ports.ProviderLegacyBAN:     0.6,
	ports.ProviderOSM:           0.5,
	ports.ProviderIGNElevation:  0.9,
	ports.ProviderOpenElevation: 0.7,
}

// Default priority ranks; lower is tried first. Ties between equal ranks
// keep declaration order.
var defaultPriorityRank = map[ports.Provider]int{
	ports.ProviderPremium:       1,
	ports.ProviderBAN:           2,
	ports.ProviderLegacyBAN:     3,
	ports.ProviderOSM:           4,
	ports.ProviderIGNElevation:  1,
	ports.ProviderOpenElevation: 2,
}

// PriorityRank returns the configured rank for a provider; unknown providers
// sort last
func PriorityRank(p ports.Provider) int {
	if rank, ok := defaultPriorityRank[p]; ok {
		return rank
	}
	return int(^uint(0) >> 1)
}

// banFeatureCollection is the GeoJSON shape shared by the BAN family of
// endpoints: features with label/score/city/postcode/context properties and
// [lon, lat] point geometry.
type banFeatureCollection struct {
	Features []banFeature `json:"features"`
}

type banFeature struct {
	Properties struct {
		Label       string  `json:"label"`
		Score       float64 `json:"score"`
		City        string  `json:"city"`
		Postcode    string  `json:"postcode"`
		Context     string  `json:"context"`
		Housenumber string  `json:"housenumber"`
		Type        string  `json:"type"`
		Name        string  `json:"name"`
	} `json:"properties"`
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// departmentFromContext extracts the department code from a BAN context
// string such as "34, Hérault, Occitanie"
func departmentFromContext(context string) string {
	parts := strings.SplitN(context, ",", 2)
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}
