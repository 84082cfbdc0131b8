package validation

import "strings"

// IsValidLatitude checks a latitude in decimal degrees
func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// IsValidLongitude checks a longitude in decimal degrees
func IsValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

// IsValidCoordinate checks a latitude/longitude pair
func IsValidCoordinate(lat, lon float64) bool {
	return IsValidLatitude(lat) && IsValidLongitude(lon)
}

// IsNotEmpty checks if string is not empty after trimming
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// TrimAndValidate trims string and validates it's not empty
func TrimAndValidate(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, trimmed != ""
}
