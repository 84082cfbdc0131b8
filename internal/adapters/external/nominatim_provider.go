package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// Nominatim usage policy requires an identifying User-Agent
const nominatimUserAgent = "spotsapi.app/1.0"

// NominatimProviderAdapter implements the GeocodeProvider port for the
// OpenStreetMap Nominatim API. Lowest-priority geocoding fallback.
type NominatimProviderAdapter struct {
	baseURL string
	client  HTTPClient
	limiter ports.RateLimiter
	logger  ports.Logger
}

// NominatimProviderParams holds parameters for creating the Nominatim provider
type NominatimProviderParams struct {
	BaseURL string
	Client  HTTPClient
	Limiter ports.RateLimiter
	Logger  ports.Logger
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// NewNominatimProviderAdapter creates a new Nominatim provider adapter
func NewNominatimProviderAdapter(params NominatimProviderParams) ports.GeocodeProvider {
	client := params.Client
	if client == nil {
		client = newHTTPClient()
	}
	return &NominatimProviderAdapter{
		baseURL: params.BaseURL,
		client:  client,
		limiter: params.Limiter,
		logger:  params.Logger,
	}
}

// Name returns the provider identifier
func (p *NominatimProviderAdapter) Name() ports.Provider {
	return ports.ProviderOSM
}

// Supports reports the operations this provider can perform
func (p *NominatimProviderAdapter) Supports(op ports.Operation) bool {
	return op == ports.OperationForward || op == ports.OperationReverse
}

// Resolve performs a forward or reverse lookup against Nominatim
func (p *NominatimProviderAdapter) Resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation) (*ports.GeocodeResult, error) {
	requestURL, err := p.buildURL(query, op)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return nil, errors.NewProviderUnavailableError("nominatim rate limit wait interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("nominatim request build failed", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("nominatim request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close Nominatim response body", ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewProviderUnavailableError(
			fmt.Sprintf("nominatim returned status %d", resp.StatusCode), nil)
	}

	var place *nominatimPlace
	if op == ports.OperationForward {
		var places []nominatimPlace
		if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
			return nil, errors.NewProviderUnavailableError("nominatim response decode failed", err)
		}
		if len(places) == 0 {
			return nil, errors.NewNotFoundError("nominatim returned no places")
		}
		place = &places[0]
	} else {
		var single nominatimPlace
		if err := json.NewDecoder(resp.Body).Decode(&single); err != nil {
			return nil, errors.NewProviderUnavailableError("nominatim response decode failed", err)
		}
		if single.Lat == "" || single.DisplayName == "" {
			return nil, errors.NewNotFoundError("nominatim found no address at coordinates")
		}
		place = &single
	}

	return p.resultFromPlace(place)
}

func (p *NominatimProviderAdapter) buildURL(query ports.GeocodeQuery, op ports.Operation) (string, error) {
	switch op {
	case ports.OperationForward:
		if !query.IsValid() || query.Text == "" {
			return "", errors.NewValidationError("nominatim forward lookup needs query text")
		}
		params := url.Values{}
		params.Set("q", query.Text)
		params.Set("format", "jsonv2")
		params.Set("limit", "1")
		params.Set("addressdetails", "1")
		return fmt.Sprintf("%s/search?%s", p.baseURL, params.Encode()), nil
	case ports.OperationReverse:
		if query.Coordinates == nil {
			return "", errors.NewValidationError("nominatim reverse lookup needs coordinates")
		}
		params := url.Values{}
		params.Set("lat", fmt.Sprintf("%f", query.Coordinates.Latitude))
		params.Set("lon", fmt.Sprintf("%f", query.Coordinates.Longitude))
		params.Set("format", "jsonv2")
		params.Set("addressdetails", "1")
		return fmt.Sprintf("%s/reverse?%s", p.baseURL, params.Encode()), nil
	default:
		return "", errors.NewValidationError("nominatim does not support operation " + op.String())
	}
}

func (p *NominatimProviderAdapter) resultFromPlace(place *nominatimPlace) (*ports.GeocodeResult, error) {
	lat, latErr := strconv.ParseFloat(place.Lat, 64)
	lon, lonErr := strconv.ParseFloat(place.Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, errors.NewProviderUnavailableError("nominatim returned malformed coordinates", nil)
	}

	city := place.Address.City
	if city == "" {
		city = place.Address.Town
	}
	if city == "" {
		city = place.Address.Village
	}

	result := &ports.GeocodeResult{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: place.DisplayName,
		Confidence:       defaultConfidence[ports.ProviderOSM],
		City:             city,
		Postcode:         place.Address.Postcode,
		Provider:         ports.ProviderOSM,
	}
	// Nominatim has no department field; derive it from French postcodes
	if len(place.Address.Postcode) >= 2 {
		result.Department = place.Address.Postcode[:2]
	}
	return result, nil
}
