package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"spotsapi.app/internal/adapters/external"
	"spotsapi.app/internal/core/enrichment"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSpotRepository keeps records in a map, mirroring the repository port
type fakeSpotRepository struct {
	spots  map[string]*ports.SpotRecord
	nextID uint
}

func newFakeSpotRepository() *fakeSpotRepository {
	return &fakeSpotRepository{spots: map[string]*ports.SpotRecord{}}
}

func (r *fakeSpotRepository) Save(_ context.Context, spot *ports.SpotRecord) error {
	if spot.ID == 0 {
		r.nextID++
		spot.ID = r.nextID
	}
	copied := *spot
	r.spots[spot.UUID] = &copied
	return nil
}

func (r *fakeSpotRepository) FindByUUID(_ context.Context, uuid string) (*ports.SpotRecord, error) {
	spot, ok := r.spots[uuid]
	if !ok {
		return nil, errors.NewNotFoundError("spot not found")
	}
	copied := *spot
	return &copied, nil
}

func (r *fakeSpotRepository) FindAll(context.Context) ([]ports.SpotRecord, error) {
	records := make([]ports.SpotRecord, 0, len(r.spots))
	for _, spot := range r.spots {
		records = append(records, *spot)
	}
	return records, nil
}

func (r *fakeSpotRepository) FindUnenriched(context.Context) ([]ports.SpotRecord, error) {
	var records []ports.SpotRecord
	for _, spot := range r.spots {
		if !spot.IsEnriched() {
			records = append(records, *spot)
		}
	}
	return records, nil
}

func (r *fakeSpotRepository) Delete(_ context.Context, uuid string) error {
	if _, ok := r.spots[uuid]; !ok {
		return errors.NewNotFoundError("spot not found")
	}
	delete(r.spots, uuid)
	return nil
}

// fakeEnrichment answers Enrich with a canned result or error
type fakeEnrichment struct {
	spot *enrichment.EnrichedSpot
	err  error
}

func (f *fakeEnrichment) Enrich(_ context.Context, partial enrichment.PartialSpot) (*enrichment.EnrichedSpot, error) {
	if f.err != nil {
		return nil, f.err
	}
	result := *f.spot
	result.Name = partial.Name
	return &result, nil
}

func (f *fakeEnrichment) EnrichBatch(ctx context.Context, partials []enrichment.PartialSpot) ([]*enrichment.EnrichedSpot, *enrichment.BatchReport, error) {
	report := &enrichment.BatchReport{
		Total:            len(partials),
		UnresolvedBySpot: map[string][]string{},
	}
	results := make([]*enrichment.EnrichedSpot, len(partials))
	for i, partial := range partials {
		spot, err := f.Enrich(ctx, partial)
		if err != nil {
			continue
		}
		results[i] = spot
		report.FullyResolved++
	}
	return results, report, nil
}

func enrichedSalagou() *enrichment.EnrichedSpot {
	lat, lon, elev, conf := 43.6508, 3.3857, 139.0, 0.87
	addr, city, postcode, dept := "Lac du Salagou 34800 Clermont-l'Hérault", "Clermont-l'Hérault", "34800", "34"
	return &enrichment.EnrichedSpot{
		Latitude:        &lat,
		Longitude:       &lon,
		Address:         &addr,
		City:            &city,
		Postcode:        &postcode,
		Department:      &dept,
		ElevationMeters: &elev,
		Confidence:      &conf,
		Provenance: map[string]ports.Provider{
			"latitude":  ports.ProviderBAN,
			"longitude": ports.ProviderBAN,
			"elevation": ports.ProviderIGNElevation,
		},
	}
}

type serverFixture struct {
	server *HTTPServerAdapter
	spots  *fakeSpotRepository
	enrich *fakeEnrichment
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	spots := newFakeSpotRepository()
	enrich := &fakeEnrichment{spot: enrichedSalagou()}

	server, err := NewHTTPServerAdapter(ServerOptions{
		Config:         ServerConfig{Port: 8080},
		Enrichment:     enrich,
		SpotRepository: spots,
	})
	require.NoError(t, err)

	return &serverFixture{server: server, spots: spots, enrich: enrich}
}

func (f *serverFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	f.server.GetRouter().ServeHTTP(recorder, req)
	return recorder
}

func TestCacheStatsEndpoint(t *testing.T) {
	spots := newFakeSpotRepository()
	cache := external.NewMemoryCacheProvider()
	cache.RecordHit()
	cache.RecordHit()
	cache.RecordMiss()

	server, err := NewHTTPServerAdapter(ServerOptions{
		Enrichment:     &fakeEnrichment{spot: enrichedSalagou()},
		SpotRepository: spots,
		CacheMetrics:   cache,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil)
	recorder := httptest.NewRecorder()
	server.GetRouter().ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Hits     int64   `json:"hits"`
		Misses   int64   `json:"misses"`
		HitRatio float64 `json:"hit_ratio"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Hits)
	assert.Equal(t, int64(1), body.Misses)
}

func TestCacheStatsEndpoint_AbsentWithoutMetrics(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodGet, "/api/cache/stats", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHealthEndpoint(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status": "ok"}`, resp.Body.String())
}

func TestCreateSpot(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodPost, "/api/spots", gin.H{
		"name":      "Lac du Salagou",
		"category":  "swim",
		"latitude":  43.6508,
		"longitude": 3.3857,
	})

	require.Equal(t, http.StatusCreated, resp.Code)

	var created SpotResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, "Lac du Salagou", created.Name)
	require.NotNil(t, created.Latitude)
	assert.Equal(t, 43.6508, *created.Latitude)
}

func TestCreateSpot_RequiresName(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodPost, "/api/spots", gin.H{"category": "urbex"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateSpot_RejectsLoneCoordinate(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodPost, "/api/spots", gin.H{
		"name":     "Lac du Salagou",
		"latitude": 43.6508,
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetSpot(t *testing.T) {
	f := newServerFixture(t)
	record := &ports.SpotRecord{UUID: uuid.NewString(), Name: "Pont du Diable"}
	require.NoError(t, f.spots.Save(context.Background(), record))

	resp := f.do(http.MethodGet, "/api/spots/"+record.UUID, nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var found SpotResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &found))
	assert.Equal(t, "Pont du Diable", found.Name)
}

func TestGetSpot_NotFound(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodGet, "/api/spots/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListSpots(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.spots.Save(ctx, &ports.SpotRecord{UUID: uuid.NewString(), Name: "A"}))
	require.NoError(t, f.spots.Save(ctx, &ports.SpotRecord{UUID: uuid.NewString(), Name: "B"}))

	resp := f.do(http.MethodGet, "/api/spots", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Spots []SpotResponse `json:"spots"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Spots, 2)
}

func TestDeleteSpot(t *testing.T) {
	f := newServerFixture(t)
	record := &ports.SpotRecord{UUID: uuid.NewString(), Name: "Gone"}
	require.NoError(t, f.spots.Save(context.Background(), record))

	resp := f.do(http.MethodDelete, "/api/spots/"+record.UUID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.do(http.MethodDelete, "/api/spots/"+record.UUID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEnrichAdHoc(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodPost, "/api/enrich", gin.H{"name": "Lac du Salagou"})

	require.Equal(t, http.StatusOK, resp.Code)
	var body EnrichedSpotResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotNil(t, body.Latitude)
	assert.Equal(t, 43.6508, *body.Latitude)
	assert.Equal(t, ports.ProviderBAN, body.Provenance["latitude"])
	assert.Equal(t, ports.ProviderIGNElevation, body.Provenance["elevation"])
}

func TestEnrichAdHoc_ProvidersDown(t *testing.T) {
	f := newServerFixture(t)
	f.enrich.err = errors.NewProviderUnavailableError("all providers unavailable", nil)

	resp := f.do(http.MethodPost, "/api/enrich", gin.H{"name": "Lac du Salagou"})

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestEnrichAdHoc_ValidationFailure(t *testing.T) {
	f := newServerFixture(t)
	f.enrich.err = errors.NewValidationError("spot needs a name or coordinates")

	resp := f.do(http.MethodPost, "/api/enrich", gin.H{})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEnrichSpot_PersistsResolvedFields(t *testing.T) {
	f := newServerFixture(t)
	record := &ports.SpotRecord{UUID: uuid.NewString(), Name: "Lac du Salagou"}
	require.NoError(t, f.spots.Save(context.Background(), record))

	resp := f.do(http.MethodPost, "/api/spots/"+record.UUID+"/enrich", nil)

	require.Equal(t, http.StatusOK, resp.Code)

	stored, err := f.spots.FindByUUID(context.Background(), record.UUID)
	require.NoError(t, err)
	require.NotNil(t, stored.Department)
	assert.Equal(t, "34", *stored.Department)
	assert.True(t, stored.IsEnriched())
	assert.Equal(t, ports.ProviderBAN, stored.Provenance["latitude"])
}

func TestEnrichSpot_UnknownUUID(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodPost, "/api/spots/"+uuid.NewString()+"/enrich", nil)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEnrichAllSpots(t *testing.T) {
	f := newServerFixture(t)
	ctx := context.Background()
	require.NoError(t, f.spots.Save(ctx, &ports.SpotRecord{UUID: uuid.NewString(), Name: "A"}))
	require.NoError(t, f.spots.Save(ctx, &ports.SpotRecord{UUID: uuid.NewString(), Name: "B"}))

	resp := f.do(http.MethodPost, "/api/spots/enrich-all", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Enriched int `json:"enriched"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Enriched)

	unenriched, err := f.spots.FindUnenriched(ctx)
	require.NoError(t, err)
	assert.Empty(t, unenriched)
}

func TestEnrichAllSpots_NothingToDo(t *testing.T) {
	f := newServerFixture(t)

	resp := f.do(http.MethodPost, "/api/spots/enrich-all", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Enriched int `json:"enriched"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Enriched)
}

func TestNewHTTPServerAdapter_RequiresDependencies(t *testing.T) {
	_, err := NewHTTPServerAdapter(ServerOptions{SpotRepository: newFakeSpotRepository()})
	assert.Error(t, err)

	_, err = NewHTTPServerAdapter(ServerOptions{Enrichment: &fakeEnrichment{}})
	assert.Error(t, err)
}
