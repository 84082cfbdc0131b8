package ports

import (
	"context"
	"time"
)

// SpotRecord is the persistence-facing shape of a spot
type SpotRecord struct {
	ID              uint
	UUID            string
	Name            string
	Category        string
	Latitude        *float64
	Longitude       *float64
	Address         *string
	City            *string
	Postcode        *string
	Department      *string
	ElevationMeters *float64
	Confidence      *float64
	Provenance      map[string]Provider
	EnrichedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsEnriched reports whether the record already carries resolved geography
func (s *SpotRecord) IsEnriched() bool {
	return s.EnrichedAt != nil
}

// SpotRepository defines the contract for spot persistence
type SpotRepository interface {
	Save(ctx context.Context, spot *SpotRecord) error
	FindByUUID(ctx context.Context, uuid string) (*SpotRecord, error)
	FindAll(ctx context.Context) ([]SpotRecord, error)
	FindUnenriched(ctx context.Context) ([]SpotRecord, error)
	Delete(ctx context.Context, uuid string) error
}
