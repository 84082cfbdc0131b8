package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// Safety margin subtracted from the token's declared lifetime so a request
// never races an expiring token
const tokenExpiryMargin = 60 * time.Second

// PremiumProviderAdapter implements the GeocodeProvider port for the
// authenticated IGN premium geocoding service. A bearer token is fetched
// once, cached until shortly before expiry and refreshed transparently.
// The first authentication failure disables the provider for the remainder
// of the process so a broken credential is never hammered per call.
type PremiumProviderAdapter struct {
	baseURL  string
	tokenURL string
	apiKey   string
	client   HTTPClient
	limiter  ports.RateLimiter
	logger   ports.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	disabled    bool
}

// PremiumProviderParams holds parameters for creating the premium provider
type PremiumProviderParams struct {
	BaseURL  string
	TokenURL string
	APIKey   string
	Client   HTTPClient
	Limiter  ports.RateLimiter
	Logger   ports.Logger
}

type premiumTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewPremiumProviderAdapter creates a new premium provider adapter
func NewPremiumProviderAdapter(params PremiumProviderParams) *PremiumProviderAdapter {
	client := params.Client
	if client == nil {
		client = newHTTPClient()
	}
	return &PremiumProviderAdapter{
		baseURL:  params.BaseURL,
		tokenURL: params.TokenURL,
		apiKey:   params.APIKey,
		client:   client,
		limiter:  params.Limiter,
		logger:   params.Logger,
	}
}

// Name returns the provider identifier
func (p *PremiumProviderAdapter) Name() ports.Provider {
	return ports.ProviderPremium
}

// Supports reports the operations this provider can perform
func (p *PremiumProviderAdapter) Supports(op ports.Operation) bool {
	return op == ports.OperationForward || op == ports.OperationReverse
}

// Disabled reports whether the provider shut itself off after an
// authentication failure
func (p *PremiumProviderAdapter) Disabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disabled
}

// Resolve performs an authenticated forward or reverse lookup
func (p *PremiumProviderAdapter) Resolve(ctx context.Context, query ports.GeocodeQuery, op ports.Operation) (*ports.GeocodeResult, error) {
	requestURL, err := p.buildURL(query, op)
	if err != nil {
		return nil, err
	}

	token, err := p.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return nil, errors.NewProviderUnavailableError("premium rate limit wait interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("premium request build failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewProviderUnavailableError("premium request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close premium response body", ports.F("error", closeErr))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		p.disable()
		return nil, errors.NewAuthenticationError(
			fmt.Sprintf("premium rejected token with status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.NewProviderUnavailableError(
			fmt.Sprintf("premium returned status %d", resp.StatusCode), nil)
	}

	var collection banFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, errors.NewProviderUnavailableError("premium response decode failed", err)
	}

	if len(collection.Features) == 0 {
		return nil, errors.NewNotFoundError("premium returned no features")
	}

	feature := collection.Features[0]
	if len(feature.Geometry.Coordinates) < 2 {
		return nil, errors.NewProviderUnavailableError("premium feature has malformed geometry", nil)
	}

	confidence := feature.Properties.Score
	if confidence <= 0 || confidence > 1 {
		confidence = defaultConfidence[ports.ProviderPremium]
	}

	result := &ports.GeocodeResult{
		Longitude:        feature.Geometry.Coordinates[0],
		Latitude:         feature.Geometry.Coordinates[1],
		FormattedAddress: feature.Properties.Label,
		Confidence:       confidence,
		City:             feature.Properties.City,
		Postcode:         feature.Properties.Postcode,
		Department:       departmentFromContext(feature.Properties.Context),
		Provider:         ports.ProviderPremium,
	}
	if feature.Properties.Name != "" {
		result.Extra = map[string]string{"name": feature.Properties.Name}
	}
	return result, nil
}

func (p *PremiumProviderAdapter) buildURL(query ports.GeocodeQuery, op ports.Operation) (string, error) {
	switch op {
	case ports.OperationForward:
		if !query.IsValid() || query.Text == "" {
			return "", errors.NewValidationError("premium forward lookup needs query text")
		}
		params := url.Values{}
		params.Set("q", query.Text)
		params.Set("limit", "1")
		return fmt.Sprintf("%s/search?%s", p.baseURL, params.Encode()), nil
	case ports.OperationReverse:
		if query.Coordinates == nil {
			return "", errors.NewValidationError("premium reverse lookup needs coordinates")
		}
		params := url.Values{}
		params.Set("lat", fmt.Sprintf("%f", query.Coordinates.Latitude))
		params.Set("lon", fmt.Sprintf("%f", query.Coordinates.Longitude))
		return fmt.Sprintf("%s/reverse?%s", p.baseURL, params.Encode()), nil
	default:
		return "", errors.NewValidationError("premium does not support operation " + op.String())
	}
}

// bearerToken returns the cached token, refreshing it when it is about to
// expire. A disabled provider reports an authentication error without any
// network call.
func (p *PremiumProviderAdapter) bearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disabled {
		return "", errors.NewAuthenticationError("premium provider disabled after earlier auth failure", nil)
	}
	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewProviderUnavailableError("premium token request build failed", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.NewProviderUnavailableError("premium token request failed", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Warn("failed to close premium token response body", ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		p.disabled = true
		p.logger.Error("premium authentication failed, disabling provider for this process",
			ports.F("status", resp.StatusCode))
		return "", errors.NewAuthenticationError(
			fmt.Sprintf("premium token endpoint returned status %d", resp.StatusCode), nil)
	}

	var tokenResp premiumTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", errors.NewProviderUnavailableError("premium token decode failed", err)
	}
	if tokenResp.AccessToken == "" {
		p.disabled = true
		return "", errors.NewAuthenticationError("premium token endpoint returned empty token", nil)
	}

	lifetime := time.Duration(tokenResp.ExpiresIn) * time.Second
	if lifetime > tokenExpiryMargin {
		lifetime -= tokenExpiryMargin
	}

	p.token = tokenResp.AccessToken
	p.tokenExpiry = time.Now().Add(lifetime)
	p.logger.Debug("premium token refreshed", ports.F("valid_for", lifetime.String()))
	return p.token, nil
}

func (p *PremiumProviderAdapter) disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled = true
}
