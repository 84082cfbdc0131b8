package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/errors"
)

// CreateSpotRequest is the payload for registering a new spot
type CreateSpotRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=200"`
	Category  string   `json:"category" binding:"omitempty,max=100"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// SpotResponse is the HTTP representation of a stored spot
type SpotResponse struct {
	UUID            string                    `json:"uuid"`
	Name            string                    `json:"name"`
	Category        string                    `json:"category,omitempty"`
	Latitude        *float64                  `json:"latitude,omitempty"`
	Longitude       *float64                  `json:"longitude,omitempty"`
	Address         *string                   `json:"address,omitempty"`
	City            *string                   `json:"city,omitempty"`
	Postcode        *string                   `json:"postcode,omitempty"`
	Department      *string                   `json:"department,omitempty"`
	ElevationMeters *float64                  `json:"elevation_meters,omitempty"`
	Confidence      *float64                  `json:"confidence,omitempty"`
	Provenance      map[string]ports.Provider `json:"source_provenance,omitempty"`
	EnrichedAt      *time.Time                `json:"enriched_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

func spotResponseFromRecord(record *ports.SpotRecord) SpotResponse {
	return SpotResponse{
		UUID:            record.UUID,
		Name:            record.Name,
		Category:        record.Category,
		Latitude:        record.Latitude,
		Longitude:       record.Longitude,
		Address:         record.Address,
		City:            record.City,
		Postcode:        record.Postcode,
		Department:      record.Department,
		ElevationMeters: record.ElevationMeters,
		Confidence:      record.Confidence,
		Provenance:      record.Provenance,
		EnrichedAt:      record.EnrichedAt,
		CreatedAt:       record.CreatedAt,
	}
}

// listSpots handles GET /api/spots requests
func (s *HTTPServerAdapter) listSpots(c *gin.Context) {
	records, err := s.spots.FindAll(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	responses := make([]SpotResponse, 0, len(records))
	for i := range records {
		responses = append(responses, spotResponseFromRecord(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"spots": responses, "count": len(responses)})
}

// getSpot handles GET /api/spots/:uuid requests
func (s *HTTPServerAdapter) getSpot(c *gin.Context) {
	record, err := s.spots.FindByUUID(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, spotResponseFromRecord(record))
}

// createSpot handles POST /api/spots requests
func (s *HTTPServerAdapter) createSpot(c *gin.Context) {
	var request CreateSpotRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		s.handleError(c, errors.NewValidationError("invalid spot payload: "+err.Error()))
		return
	}
	if (request.Latitude == nil) != (request.Longitude == nil) {
		s.handleError(c, errors.NewValidationError("latitude and longitude must be supplied together"))
		return
	}

	record := &ports.SpotRecord{
		UUID:      uuid.NewString(),
		Name:      request.Name,
		Category:  request.Category,
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
	}

	if err := s.spots.Save(c.Request.Context(), record); err != nil {
		s.handleError(c, err)
		return
	}

	slog.Debug("Spot created", "uuid", record.UUID, "name", record.Name)
	c.JSON(http.StatusCreated, spotResponseFromRecord(record))
}

// deleteSpot handles DELETE /api/spots/:uuid requests
func (s *HTTPServerAdapter) deleteSpot(c *gin.Context) {
	if err := s.spots.Delete(c.Request.Context(), c.Param("uuid")); err != nil {
		s.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
