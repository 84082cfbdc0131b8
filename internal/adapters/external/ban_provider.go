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

// BANProviderAdapter implements the GeocodeProvider port for the Base
// Adresse Nationale geocoding API (api-adresse.data.gouv.fr)
type BANProviderAdapter struct {
	baseURL string
	client  HTTPClient
	limiter ports.RateLimiter
	logger  ports.Logger
}

// BANProviderParams holds parameters for creating the BAN provider
type BANProviderParams struct {
	BaseURL string
	Client  HTTPClient
	Limiter ports.RateLimiter
	Logger  ports.Logger
}

// NewBANProviderAdapter creates a new BAN provider adapter
func NewBANProviderAdapter(params BANProviderParams) ports.GeocodeProvider {
	client := params.Client
	if client == nil {
		client = newHTTPClient()
	}
	return &BANProviderAdapter{
		baseURL: params.BaseURL,
		client:  client,
		limiter: params.Limiter,
		logger:  params.Logger,
	}
}

// Name returns the provider identifier
func (p *BANProviderAdapter) Name() ports.Provider {
	return ports.ProviderBAN
}

// Supports reports the operations this provider can perform
func (p *BANProviderAdapter) Supports(op ports.Operation) bool {
	return op == ports.OperationForward || op == ports.OperationReverse
}

// Resolve performs a forward or reverse lookup against BAN
func (p *BANProviderAdapter) Resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation) (*ports.GeocodeResult, error) {
	requestURL, err := p.buildURL(query, op)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return nil, errors.NewProviderUnavailableError("ban rate limit wait interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("ban request build failed", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("ban request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close BAN response body", ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(
			fmt.Sprintf("ban returned status %d", resp.StatusCode), nil)
	}

	var collection banFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, errors.NewProviderUnavailableError("ban response decode failed", err)
	}

	return p.resultFromCollection(collection)
}

func (p *BANProviderAdapter) buildURL(query ports.GeocodeQuery, op ports.Operation) (string, error) {
	switch op {
	case ports.OperationForward:
		if !query.IsValid() || query.Text == "" {
			return "", errors.NewValidationError("ban forward lookup needs query text")
		}
		params := url.Values{}
		params.Set("q", query.Text)
		params.Set("limit", "1")
		if query.PostcodeHint != "" {
			params.Set("postcode", query.PostcodeHint)
		}
		return fmt.Sprintf("%s/search/?%s", p.baseURL, params.Encode()), nil
	case ports.OperationReverse:
		if query.Coordinates == nil {
			return "", errors.NewValidationError("ban reverse lookup needs coordinates")
		}
		params := url.Values{}
		params.Set("lat", fmt.Sprintf("%f", query.Coordinates.Latitude))
		params.Set("lon", fmt.Sprintf("%f", query.Coordinates.Longitude))
		return fmt.Sprintf("%s/reverse/?%s", p.baseURL, params.Encode()), nil
	default:
		return "", errors.NewValidationError("ban does not support operation " + op.String())
	}
}

func (p *BANProviderAdapter) resultFromCollection(collection banFeatureCollection) (*ports.GeocodeResult, error) {
	if len(collection.Features) == 0 {
		return nil, errors.NewNotFoundError("ban returned no features")
	}

	feature := collection.Features[0]
	if len(feature.Geometry.Coordinates) < 2 {
		return nil, errors.NewProviderUnavailableError("ban feature has malformed geometry", nil)
	}

	confidence := feature.Properties.Score
	if confidence <= 0 || confidence > 1 {
		confidence = defaultConfidence[ports.ProviderBAN]
	}

	result := &ports.GeocodeResult{
		// GeoJSON order is [lon, lat]
		Longitude:        feature.Geometry.Coordinates[0],
		Latitude:         feature.Geometry.Coordinates[1],
		FormattedAddress: feature.Properties.Label,
		Confidence:       confidence,
		City:             feature.Properties.City,
		Postcode:         feature.Properties.Postcode,
		Department:       departmentFromContext(feature.Properties.Context),
		Provider:         ports.ProviderBAN,
	}
	if feature.Properties.Housenumber != "" {
		result.Extra = map[string]string{"housenumber": feature.Properties.Housenumber}
	}
	return result, nil
}
