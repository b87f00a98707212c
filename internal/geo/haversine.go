package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by every distance calculation.
const EarthRadiusMeters = 6371000.0

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is a finite coordinate inside the WGS84 ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// HaversineDistanceMeters returns the great-circle distance between a and b.
func HaversineDistanceMeters(a, b Point) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	dlat := degreesToRadians(b.Lat - a.Lat)
	dlng := degreesToRadians(b.Lng - a.Lng)

	sinLat := math.Sin(dlat / 2)
	sinLng := math.Sin(dlng / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// IsWithinRadius reports whether the point lies inside the circle around the
// center. The boundary is inclusive.
func IsWithinRadius(centerLat, centerLng, pointLat, pointLng, radiusKm float64) bool {
	distanceKm := HaversineDistanceMeters(Point{Lat: centerLat, Lng: centerLng}, Point{Lat: pointLat, Lng: pointLng}) / 1000
	return distanceKm <= radiusKm
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
