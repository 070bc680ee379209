package punch

import (
	"errors"
	"math"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

const earthRadiusMeters = 6371000.0

type GeofenceResult struct {
	WithinGeofence bool `json:"withinGeofence"`
	DistanceMeters int  `json:"distanceMeters"`
}

// ValidateGeofence computes the great-circle distance between a reported
// position and a site center, rounded to the nearest meter. Malformed
// coordinates fail with ErrInvalidCoordinates; a missing position is never
// treated as (0,0).
func ValidateGeofence(reported, site Coordinates, radiusMeters int) (GeofenceResult, error) {
	if !validCoordinates(reported) || !validCoordinates(site) {
		return GeofenceResult{}, ErrInvalidCoordinates
	}

	distance := int(math.Round(haversineMeters(reported, site)))
	return GeofenceResult{
		WithinGeofence: distance <= radiusMeters,
		DistanceMeters: distance,
	}, nil
}

func validCoordinates(c Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func haversineMeters(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
