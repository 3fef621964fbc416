// Package geo implements the geometric primitives used to reason about
// rider/driver proximity: great-circle distance, ETA and encoded polyline
// routes.
package geo

import (
	"errors"
	"fmt"
	"math"

	"driverfeed/internal/domain/entities"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0

	// DefaultAverageSpeedKmH is the urban speed assumed for ETA display.
	DefaultAverageSpeedKmH = 40.0
)

// ErrInvalidArgument signals a programmer error such as a non-positive speed.
// It is never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// DistanceKm returns the great-circle distance between a and b in kilometers.
//
// The formula works on the half-angle sines of the deltas, so swapping a and b
// only flips signs that are squared away: DistanceKm(a, b) == DistanceKm(b, a).
func DistanceKm(a, b entities.Coordinate) float64 {
	lat1Rad := toRadians(a.Latitude)
	lat2Rad := toRadians(b.Latitude)
	deltaLat := toRadians(b.Latitude - a.Latitude)
	deltaLon := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	h := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// EtaMinutes estimates whole minutes to cover distanceKm at avgSpeedKmH,
// rounding up so a non-zero distance never shows as 0 minutes.
func EtaMinutes(distanceKm, avgSpeedKmH float64) (int, error) {
	if !(avgSpeedKmH > 0) || math.IsInf(avgSpeedKmH, 0) {
		return 0, fmt.Errorf("%w: average speed must be positive, got %v", ErrInvalidArgument, avgSpeedKmH)
	}
	if !(distanceKm >= 0) || math.IsInf(distanceKm, 0) {
		return 0, fmt.Errorf("%w: distance must be a non-negative number, got %v", ErrInvalidArgument, distanceKm)
	}
	minutes := math.Ceil(distanceKm / avgSpeedKmH * 60)
	if math.IsInf(minutes, 0) || minutes > math.MaxInt32 {
		return 0, fmt.Errorf("%w: eta of %v km at %v km/h does not fit in minutes", ErrInvalidArgument, distanceKm, avgSpeedKmH)
	}
	return int(minutes), nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
