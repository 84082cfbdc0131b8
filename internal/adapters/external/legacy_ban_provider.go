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

// LegacyBANProviderAdapter implements the GeocodeProvider port for the
// retired BAN endpoint generation. It answers forward lookups only and
// reports no score, so results carry the fixed legacy-tier confidence.
type LegacyBANProviderAdapter struct {
	baseURL string
	client  HTTPClient
	limiter ports.RateLimiter
	logger  ports.Logger
}

// LegacyBANProviderParams holds parameters for creating the legacy BAN provider
type LegacyBANProviderParams struct {
	BaseURL string
	Client  HTTPClient
	Limiter ports.RateLimiter
	Logger  ports.Logger
}

// NewLegacyBANProviderAdapter creates a new legacy BAN provider adapter
func NewLegacyBANProviderAdapter(params LegacyBANProviderParams) ports.GeocodeProvider {
	client := params.Client
	if client == nil {
		client = newHTTPClient()
	}
	return &LegacyBANProviderAdapter{
		baseURL: params.BaseURL,
		client:  client,
		limiter: params.Limiter,
		logger:  params.Logger,
	}
}

// Name returns the provider identifier
func (p *LegacyBANProviderAdapter) Name() ports.Provider {
	return ports.ProviderLegacyBAN
}

// Supports reports the operations this provider can perform
func (p *LegacyBANProviderAdapter) Supports(op ports.Operation) bool {
	return op == ports.OperationForward
}

// Resolve performs a forward lookup against the legacy endpoint
func (p *LegacyBANProviderAdapter) Resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation) (*ports.GeocodeResult, error) {
	if op != ports.OperationForward {
		return nil, errors.NewValidationError("legacy ban does not support operation " + op.String())
	}
	if !query.IsValid() || query.Text == "" {
		return nil, errors.NewValidationError("legacy ban lookup needs query text")
	}

	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return nil, errors.NewProviderUnavailableError("legacy ban rate limit wait interrupted", err)
	}

	params := url.Values{}
	params.Set("q", query.Text)
	params.Set("limit", "1")
	requestURL := fmt.Sprintf("%s/search/?%s", p.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("legacy ban request build failed", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("legacy ban request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close legacy BAN response body", ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(
			fmt.Sprintf("legacy ban returned status %d", resp.StatusCode), nil)
	}

	var collection banFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, errors.NewProviderUnavailableError("legacy ban response decode failed", err)
	}

	if len(collection.Features) == 0 {
		return nil, errors.NewNotFoundError("legacy ban returned no features")
	}

	feature := collection.Features[0]
	if len(feature.Geometry.Coordinates) < 2 {
		return nil, errors.NewProviderUnavailableError("legacy ban feature has malformed geometry", nil)
	}

	return &ports.GeocodeResult{
		Longitude:        feature.Geometry.Coordinates[0],
		Latitude:         feature.Geometry.Coordinates[1],
		FormattedAddress: feature.Properties.Label,
		Confidence:       defaultConfidence[ports.ProviderLegacyBAN],
		City:             feature.Properties.City,
		Postcode:         feature.Properties.Postcode,
		Department:       departmentFromContext(feature.Properties.Context),
		Provider:         ports.ProviderLegacyBAN,
	}, nil
}
