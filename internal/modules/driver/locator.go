// README: Driver locator picks eligible drivers around a pickup point.
package driver

import (
	"context"
	"math/rand/v2"

	"ridecore/internal/modules/location"
	"ridecore/internal/types"
)

const (
	DefaultRadiusKm = 10.0

	// syntheticOffsetDeg bounds the stand-in position of a driver who never reported one.
	syntheticOffsetDeg = 0.01
)

type candidateSource interface {
	ListAvailable(ctx context.Context) ([]Driver, error)
}

type Locator struct {
	store    candidateSource
	radiusKm float64
	rnd      func() float64
}

// NewLocator uses radiusKm when FindNearby is called without a radius.
func NewLocator(store candidateSource, radiusKm float64) *Locator {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Locator{store: store, radiusKm: radiusKm, rnd: rand.Float64}
}

// FindNearby returns eligible drivers within maxDistanceKm of pickup, best rated first.
// Drivers without a reported position are placed next to the pickup.
func (l *Locator) FindNearby(ctx context.Context, pickup types.Point, maxDistanceKm float64) ([]Driver, error) {
	if maxDistanceKm <= 0 {
		maxDistanceKm = l.radiusKm
	}
	pool, err := l.store.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Driver, 0, len(pool))
	for _, d := range pool {
		if !d.Eligible() {
			continue
		}
		var pos types.Point
		if d.CurrentLocation != nil {
			pos = *d.CurrentLocation
		} else {
			pos = location.Jitter(pickup, syntheticOffsetDeg, l.rnd)
		}
		if location.DistanceKm(pickup, pos) > maxDistanceKm {
			continue
		}
		out = append(out, d)
	}
	location.SortByKeyDesc(out, func(d Driver) float64 { return d.Rating })
	return out, nil
}
