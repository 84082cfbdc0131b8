package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

func newLegacyBANProvider(serverURL string) ports.GeocodeProvider {
	return NewLegacyBANProviderAdapter(LegacyBANProviderParams{
		BaseURL: serverURL,
		Limiter: noLimiter{},
		Logger:  nopLogger{},
	})
}

func TestLegacyBANProvider_ForwardLookupWithFixedConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Equal(t, "Gouffre de Padirac", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		// The legacy generation reports a score too, but it is unreliable
		// and gets replaced by the fixed tier confidence
		_, _ = w.Write([]byte(`{"features": [{
			"properties": {
				"label": "Gouffre de Padirac 46500 Padirac",
				"score": 0.99,
				"city": "Padirac",
				"postcode": "46500",
				"context": "46, Lot, Occitanie"
			},
			"geometry": {"type": "Point", "coordinates": [1.7536, 44.8586]}
		}]}`))
	}))
	defer server.Close()

	provider := newLegacyBANProvider(server.URL)

	result, err := provider.Resolve(context.Background(),
		ports.GeocodeQuery{Text: "Gouffre de Padirac"}, ports.OperationForward)

	require.NoError(t, err)
	assert.Equal(t, 44.8586, result.Latitude)
	assert.Equal(t, 1.7536, result.Longitude)
	assert.Equal(t, defaultConfidence[ports.ProviderLegacyBAN], result.Confidence)
	assert.Equal(t, "46", result.Department)
	assert.Equal(t, ports.ProviderLegacyBAN, result.Provider)
}

func TestLegacyBANProvider_SupportsForwardOnly(t *testing.T) {
	provider := newLegacyBANProvider("http://unused")

	assert.True(t, provider.Supports(ports.OperationForward))
	assert.False(t, provider.Supports(ports.OperationReverse))
	assert.False(t, provider.Supports(ports.OperationElevation))
}

func TestLegacyBANProvider_ReverseIsRejected(t *testing.T) {
	provider := newLegacyBANProvider("http://unused")

	_, err := provider.Resolve(context.Background(), ports.GeocodeQuery{
		Coordinates: &ports.Coordinates{Latitude: 44.8586, Longitude: 1.7536},
	}, ports.OperationReverse)

	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestLegacyBANProvider_EmptyFeaturesIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features": []}`))
	}))
	defer server.Close()

	provider := newLegacyBANProvider(server.URL)

	_, err := provider.Resolve(context.Background(),
		ports.GeocodeQuery{Text: "nowhere"}, ports.OperationForward)

	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}
