// README: Pure geographic helpers (distance, duration and ETA estimates, jitter, ordering).
package location

import (
	"fmt"
	"math"

	"ridecore/internal/types"
)

const (
	earthRadiusKm = 6371.0

	// minutesPerKm is the fixed speed proxy (about 24 km/h) behind every duration estimate.
	minutesPerKm = 2.5
	// arrivalMinutesPerKm drives the display ETA only.
	arrivalMinutesPerKm = 2.0
)

// DistanceKm returns the great-circle distance in kilometres between a and b.
func DistanceKm(a, b types.Point) float64 {
	return haversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// EstimatedDurationMinutes converts a route distance into whole minutes.
func EstimatedDurationMinutes(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm * minutesPerKm))
}

// EstimatedArrival renders the ETA shown next to a ride, e.g. "3 min".
func EstimatedArrival(distanceKm float64) string {
	if distanceKm < 0 {
		distanceKm = 0
	}
	return fmt.Sprintf("%d min", int(math.Ceil(distanceKm*arrivalMinutesPerKm)))
}

// Jitter returns a point offset from origin by up to maxOffsetDeg on each axis.
// rnd must return values in [0, 1).
func Jitter(origin types.Point, maxOffsetDeg float64, rnd func() float64) types.Point {
	return types.Point{
		Lat: origin.Lat + (rnd()*2-1)*maxOffsetDeg,
		Lng: origin.Lng + (rnd()*2-1)*maxOffsetDeg,
	}
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SortByKeyDesc is a stable insertion sort (fine for small N), highest key first.
func SortByKeyDesc[T any](items []T, key func(T) float64) {
	for i := 1; i < len(items); i++ {
		cur := items[i]
		j := i - 1
		for j >= 0 && key(items[j]) < key(cur) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = cur
	}
}
