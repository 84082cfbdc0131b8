package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"spotsapi.app/internal/core/enrichment"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// EnrichRequest is the payload for ad-hoc enrichment without persistence
type EnrichRequest struct {
	Name      string   `json:"name" binding:"omitempty,max=200"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// EnrichedSpotResponse is the HTTP representation of an enrichment result
type EnrichedSpotResponse struct {
	Name            string                    `json:"name,omitempty"`
	Latitude        *float64                  `json:"latitude,omitempty"`
	Longitude       *float64                  `json:"longitude,omitempty"`
	Address         *string                   `json:"address,omitempty"`
	City            *string                   `json:"city,omitempty"`
	Postcode        *string                   `json:"postcode,omitempty"`
	Department      *string                   `json:"department,omitempty"`
	ElevationMeters *float64                  `json:"elevation_meters,omitempty"`
	Confidence      *float64                  `json:"confidence,omitempty"`
	Provenance      map[string]ports.Provider `json:"source_provenance"`
	Unresolved      []string                  `json:"unresolved,omitempty"`
}

func enrichedResponse(spot *enrichment.EnrichedSpot) EnrichedSpotResponse {
	return EnrichedSpotResponse{
		Name:            spot.Name,
		Latitude:        spot.Latitude,
		Longitude:       spot.Longitude,
		Address:         spot.Address,
		City:            spot.City,
		Postcode:        spot.Postcode,
		Department:      spot.Department,
		ElevationMeters: spot.ElevationMeters,
		Confidence:      spot.Confidence,
		Provenance:      spot.Provenance,
		Unresolved:      spot.Unresolved,
	}
}

// enrichAdHoc handles POST /api/enrich requests: enrich a payload without
// touching the spot store
func (s *HTTPServerAdapter) enrichAdHoc(c *gin.Context) {
	var request EnrichRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		s.handleError(c, errors.NewValidationError("invalid enrich payload: "+err.Error()))
		return
	}

	spot, err := s.enrichment.Enrich(c.Request.Context(), enrichment.PartialSpot{
		Name:      request.Name,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrichedResponse(spot))
}

// enrichSpot handles POST /api/spots/:uuid/enrich requests
func (s *HTTPServerAdapter) enrichSpot(c *gin.Context) {
	ctx := c.Request.Context()

	record, err := s.spots.FindByUUID(ctx, c.Param("uuid"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	spot, err := s.enrichment.Enrich(ctx, partialFromRecord(record))
	if err != nil {
		s.handleError(c, err)
		return
	}

	spot.ApplyToRecord(record)
	if err := s.spots.Save(ctx, record); err != nil {
		s.handleError(c, err)
		return
	}

	slog.Debug("Spot enriched", "uuid", record.UUID, "unresolved", spot.Unresolved)
	c.JSON(http.StatusOK, spotResponseFromRecord(record))
}

// enrichAllSpots handles POST /api/spots/enrich-all requests: batch-enrich
// every stored spot that has not been enriched yet
func (s *HTTPServerAdapter) enrichAllSpots(c *gin.Context) {
	ctx := c.Request.Context()

	records, err := s.spots.FindUnenriched(ctx)
	if err != nil {
		s.handleError(c, err)
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusOK, gin.H{"enriched": 0, "report": enrichment.BatchReport{
			UnresolvedBySpot: map[string][]string{},
		}})
		return
	}

	partials := make([]enrichment.PartialSpot, 0, len(records))
	for i := range records {
		partials = append(partials, partialFromRecord(&records[i]))
	}

	enriched, report, err := s.enrichment.EnrichBatch(ctx, partials)
	if err != nil {
		s.handleError(c, err)
		return
	}

	saved := 0
	for i := range records {
		if enriched[i] == nil {
			continue
		}
		enriched[i].ApplyToRecord(&records[i])
		if saveErr := s.saveEnriched(ctx, &records[i]); saveErr == nil {
			saved++
		}
	}

	c.JSON(http.StatusOK, gin.H{"enriched": saved, "report": report})
}

func (s *HTTPServerAdapter) saveEnriched(ctx context.Context, record *ports.SpotRecord) error {
	if err := s.spots.Save(ctx, record); err != nil {
		slog.Warn("Failed to save enriched spot", "uuid", record.UUID, "error", err)
		return err
	}
	return nil
}

func partialFromRecord(record *ports.SpotRecord) enrichment.PartialSpot {
	return enrichment.PartialSpot{
		Name:            record.Name,
		Category:        record.Category,
		Latitude:        record.Latitude,
		Longitude:       record.Longitude,
		Address:         record.Address,
		Department:      record.Department,
		ElevationMeters: record.ElevationMeters,
	}
}
