// Package region implements the offline geographic checks for the target
// region: a rectangular envelope test for Occitanie membership and an
// approximate coordinate-to-department mapping.
package region

// boundingBox is a rectangular latitude/longitude envelope
type boundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func (b boundingBox) contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// departmentBounds ties a department code to its approximate envelope
type departmentBounds struct {
	Code   string
	Bounds boundingBox
}

// occitanieEnvelope covers the whole administrative region with margin.
// A point inside the envelope is not guaranteed to be inside Occitanie;
// a point outside the envelope definitely is not.
var occitanieEnvelope = boundingBox{
	MinLat: 42.30,
	MaxLat: 45.05,
	MinLon: -0.40,
	MaxLon: 4.90,
}

// departmentBoxes approximates the 13 Occitanie departments with rectangles.
// The boxes overlap; resolution is first-match-in-declared-order, so border
// coordinates can land in the wrong neighboring department. Exact polygon
// resolution is a non-goal here; callers needing authoritative codes should
// prefer the department reported by a geocoding provider.
var departmentBoxes = []departmentBounds{
	{Code: "09", Bounds: boundingBox{MinLat: 42.57, MaxLat: 43.32, MinLon: 0.83, MaxLon: 2.17}},  // Ariège
	{Code: "65", Bounds: boundingBox{MinLat: 42.67, MaxLat: 43.60, MinLon: -0.33, MaxLon: 0.65}}, // Hautes-Pyrénées
	{Code: "66", Bounds: boundingBox{MinLat: 42.33, MaxLat: 42.92, MinLon: 1.72, MaxLon: 3.18}},  // Pyrénées-Orientales
	{Code: "11", Bounds: boundingBox{MinLat: 42.65, MaxLat: 43.46, MinLon: 1.69, MaxLon: 3.25}},  // Aude
	{Code: "34", Bounds: boundingBox{MinLat: 43.21, MaxLat: 43.97, MinLon: 2.54, MaxLon: 4.19}},  // Hérault
	{Code: "30", Bounds: boundingBox{MinLat: 43.46, MaxLat: 44.46, MinLon: 3.26, MaxLon: 4.85}},  // Gard
	{Code: "48", Bounds: boundingBox{MinLat: 44.11, MaxLat: 44.97, MinLon: 2.98, MaxLon: 3.99}},  // Lozère
	{Code: "12", Bounds: boundingBox{MinLat: 43.69, MaxLat: 44.94, MinLon: 1.84, MaxLon: 3.45}},  // Aveyron
	{Code: "46", Bounds: boundingBox{MinLat: 44.20, MaxLat: 45.05, MinLon: 1.00, MaxLon: 2.21}},  // Lot
	{Code: "82", Bounds: boundingBox{MinLat: 43.75, MaxLat: 44.40, MinLon: 0.73, MaxLon: 1.99}},  // Tarn-et-Garonne
	{Code: "32", Bounds: boundingBox{MinLat: 43.30, MaxLat: 44.08, MinLon: -0.29, MaxLon: 1.20}}, // Gers
	{Code: "81", Bounds: boundingBox{MinLat: 43.38, MaxLat: 44.20, MinLon: 1.53, MaxLon: 2.94}},  // Tarn
	{Code: "31", Bounds: boundingBox{MinLat: 42.69, MaxLat: 43.92, MinLon: 0.44, MaxLon: 2.05}},  // Haute-Garonne
}

// Validator checks coordinates against the Occitanie envelope and maps them
// to department codes
type Validator struct {
	envelope    boundingBox
	departments []departmentBounds
}

// NewValidator creates a validator for the Occitanie region
func NewValidator() *Validator {
	return &Validator{
		envelope:    occitanieEnvelope,
		departments: departmentBoxes,
	}
}

// IsWithinRegion reports whether the coordinate lies inside the region's
// rectangular envelope
func (v *Validator) IsWithinRegion(lat, lon float64) bool {
	return v.envelope.contains(lat, lon)
}

// DepartmentFor maps a coordinate to a department code using the first
// matching rectangle in declared order. Returns false when the point falls
// outside every configured department.
func (v *Validator) DepartmentFor(lat, lon float64) (string, bool) {
	for _, dept := range v.departments {
		if dept.Bounds.contains(lat, lon) {
			return dept.Code, true
		}
	}
	return "", false
}
