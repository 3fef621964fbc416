package services

import (
	"sort"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/geo"
)

// DriverWithDistance pairs a driver location with its distance from a search
// point.
type DriverWithDistance struct {
	Driver     entities.DriverLocation
	DistanceKm float64
}

// NearbyDrivers keeps the drivers within radiusKm of origin, nearest first.
// A non-positive radius keeps every driver. Ties keep snapshot order.
func NearbyDrivers(snapshot []entities.DriverLocation, origin entities.Coordinate, radiusKm float64) []DriverWithDistance {
	candidates := make([]DriverWithDistance, 0, len(snapshot))
	for _, d := range snapshot {
		distance := geo.DistanceKm(origin, d.Coordinate)
		if radiusKm > 0 && distance > radiusKm {
			continue
		}
		candidates = append(candidates, DriverWithDistance{Driver: d, DistanceKm: distance})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})
	return candidates
}
