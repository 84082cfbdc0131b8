// Package enrichment implements the top-level enrichment use case: resolving
// a partial spot record to validated geographic attributes through the
// provider fallback chains.
package enrichment

import (
	"strings"
	"time"

	"spotsapi.app/internal/ports"
	"spotsapi.app/pkg/validation"
)

// Provenance field names recorded when a provider supplies a value
const (
	FieldLatitude   = "latitude"
	FieldLongitude  = "longitude"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldPostcode   = "postcode"
	FieldDepartment = "department"
	FieldElevation  = "elevation"
	FieldConfidence = "confidence"
)

// DepartmentProvenanceOffline marks a department resolved by the offline
// bounding-box fallback rather than a network provider
const DepartmentProvenanceOffline ports.Provider = "region_bounds"

// PartialSpot is the caller-supplied record before enrichment. At least a
// name or a coordinate pair must be present.
type PartialSpot struct {
	Name            string
	Category        string
	Latitude        *float64
	Longitude       *float64
	Address         *string
	Department      *string
	ElevationMeters *float64
}

// IsValid checks the partial spot carries at least one usable reference
func (p *PartialSpot) IsValid() error {
	if p.HasCoordinates() {
		if !validation.IsValidCoordinate(*p.Latitude, *p.Longitude) {
			return errInvalidCoordinates
		}
		return nil
	}
	if !validation.IsNotEmpty(p.Name) {
		return errEmptySpot
	}
	return nil
}

// HasCoordinates reports whether both latitude and longitude are set
func (p *PartialSpot) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// NormalizeName trims surrounding whitespace from the name hint
func (p *PartialSpot) NormalizeName() {
	p.Name = strings.TrimSpace(p.Name)
}

// EnrichedSpot is the result of a single enrichment call. Fields no provider
// could resolve stay nil; Provenance records which provider supplied each
// resolved field.
type EnrichedSpot struct {
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
	Provenance      map[string]ports.Provider
	Unresolved      []string
}

// FullyResolved reports whether every enrichable field was populated
func (s *EnrichedSpot) FullyResolved() bool {
	return len(s.Unresolved) == 0
}

// ApplyToRecord writes resolved fields back onto a stored record and stamps
// it enriched. Fields the pipeline could not resolve keep their previous
// values.
func (s *EnrichedSpot) ApplyToRecord(record *ports.SpotRecord) {
	record.Latitude = s.Latitude
	record.Longitude = s.Longitude
	if s.Address != nil {
		record.Address = s.Address
	}
	if s.City != nil {
		record.City = s.City
	}
	if s.Postcode != nil {
		record.Postcode = s.Postcode
	}
	if s.Department != nil {
		record.Department = s.Department
	}
	if s.ElevationMeters != nil {
		record.ElevationMeters = s.ElevationMeters
	}
	if s.Confidence != nil {
		record.Confidence = s.Confidence
	}
	if len(s.Provenance) > 0 {
		record.Provenance = s.Provenance
	}
	now := time.Now()
	record.EnrichedAt = &now
}

// BatchReport summarizes a batch enrichment run. Partial enrichment is
// success; the report is the surfaced diagnostic, not an error.
type BatchReport struct {
	Total              int
	FullyResolved      int
	UnresolvedBySpot   map[string][]string
	ProvidersExhausted bool
}
