package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// The IGN service reports this sentinel where it has no elevation data
const ignNoDataElevation = -99999.0

// IGNElevationProviderAdapter implements the GeocodeProvider port for the
// national IGN elevation service. Primary elevation source.
type IGNElevationProviderAdapter struct {
	baseURL string
	client  HTTPClient
	limiter ports.RateLimiter
	logger  ports.Logger
}

// IGNElevationProviderParams holds parameters for creating the IGN elevation provider
type IGNElevationProviderParams struct {
	BaseURL string
	Client  HTTPClient
	Limiter ports.RateLimiter
	Logger  ports.Logger
}

type ignElevationResponse struct {
	Elevations []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
		Z   float64 `json:"z"`
	} `json:"elevations"`
}

// NewIGNElevationProviderAdapter creates a new IGN elevation provider adapter
func NewIGNElevationProviderAdapter(params IGNElevationProviderParams) ports.GeocodeProvider {
	client := params.Client
	if client == nil {
		client = newHTTPClient()
	}
	return &IGNElevationProviderAdapter{
		baseURL: params.BaseURL,
		client:  client,
		limiter: params.Limiter,
		logger:  params.Logger,
	}
}

// Name returns the provider identifier
func (p *IGNElevationProviderAdapter) Name() ports.Provider {
	return ports.ProviderIGNElevation
}

// Supports reports the operations this provider can perform
func (p *IGNElevationProviderAdapter) Supports(op ports.Operation) bool {
	return op == ports.OperationElevation
}

// Resolve fetches the elevation at the query coordinates
func (p *IGNElevationProviderAdapter) Resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation) (*ports.GeocodeResult, error) {
	if op != ports.OperationElevation {
		return nil, errors.NewValidationError("ign elevation does not support operation " + op.String())
	}
	if query.Coordinates == nil {
		return nil, errors.NewValidationError("ign elevation lookup needs coordinates")
	}

	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return nil, errors.NewProviderUnavailableError("ign elevation rate limit wait interrupted", err)
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", query.Coordinates.Latitude))
	params.Set("lon", fmt.Sprintf("%f", query.Coordinates.Longitude))
	params.Set("zonly", "false")
	requestURL := fmt.Sprintf("%s/elevation.json?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("ign elevation request build failed", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("ign elevation request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close IGN elevation response body", ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(
			fmt.Sprintf("ign elevation returned status %d", resp.StatusCode), nil)
	}

	var elevationResp ignElevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&elevationResp); err != nil {
		return nil, errors.NewProviderUnavailableError("ign elevation response decode failed", err)
	}

	if len(elevationResp.Elevations) == 0 {
		return nil, errors.NewNotFoundError("ign elevation returned no values")
	}

	z := elevationResp.Elevations[0].Z
	if z <= ignNoDataElevation {
		return nil, errors.NewNotFoundError("ign elevation has no data at coordinates")
	}

	return &ports.GeocodeResult{
		Latitude:        query.Coordinates.Latitude,
		Longitude:       query.Coordinates.Longitude,
		Confidence:      defaultConfidence[ports.ProviderIGNElevation],
		ElevationMeters: &z,
		Provider:        ports.ProviderIGNElevation,
	}, nil
}

// OpenElevationProviderAdapter implements the GeocodeProvider port for the
// global Open-Elevation API. Fallback when the national service has no data
// or is unreachable.
type OpenElevationProviderAdapter struct {
	baseURL string
	client  HTTPClient
	limiter ports.RateLimiter
	logger  ports.Logger
}

// OpenElevationProviderParams holds parameters for creating the Open-Elevation provider
type OpenElevationProviderParams struct {
	BaseURL string
	Client  HTTPClient
	Limiter ports.RateLimiter
	Logger  ports.Logger
}

type openElevationResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// NewOpenElevationProviderAdapter creates a new Open-Elevation provider adapter
func NewOpenElevationProviderAdapter(params OpenElevationProviderParams) ports.GeocodeProvider {
	client := params.Client
	if client == nil {
		client = newHTTPClient()
	}
	return &OpenElevationProviderAdapter{
		baseURL: params.BaseURL,
		client:  client,
		limiter: params.Limiter,
		logger:  params.Logger,
	}
}

// Name returns the provider identifier
func (p *OpenElevationProviderAdapter) Name() ports.Provider {
	return ports.ProviderOpenElevation
}

// Supports reports the operations this provider can perform
func (p *OpenElevationProviderAdapter) Supports(op ports.Operation) bool {
	return op == ports.OperationElevation
}

// Resolve fetches the elevation at the query coordinates
func (p *OpenElevationProviderAdapter) Resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation) (*ports.GeocodeResult, error) {
	if op != ports.OperationElevation {
		return nil, errors.NewValidationError("open elevation does not support operation " + op.String())
	}
	if query.Coordinates == nil {
		return nil, errors.NewValidationError("open elevation lookup needs coordinates")
	}

	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return nil, errors.NewProviderUnavailableError("open elevation rate limit wait interrupted", err)
	}

	params := url.Values{}
	params.Set("locations", fmt.Sprintf("%f,%f", query.Coordinates.Latitude, query.Coordinates.Longitude))
	requestURL := fmt.Sprintf("%s/api/v1/lookup?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("open elevation request build failed", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("open elevation request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close Open-Elevation response body", ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(
			fmt.Sprintf("open elevation returned status %d", resp.StatusCode), nil)
	}

	var elevationResp openElevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&elevationResp); err != nil {
		return nil, errors.NewProviderUnavailableError("open elevation response decode failed", err)
	}

	if len(elevationResp.Results) == 0 {
		return nil, errors.NewNotFoundError("open elevation returned no results")
	}

	elevation := elevationResp.Results[0].Elevation
	return &ports.GeocodeResult{
		Latitude:        query.Coordinates.Latitude,
		Longitude:       query.Coordinates.Longitude,
		Confidence:      defaultConfidence[ports.ProviderOpenElevation],
		ElevationMeters: &elevation,
		Provider:        ports.ProviderOpenElevation,
	}, nil
}
