// README: Pricing service computes fare quotes.
package pricing

import (
	"context"
	"log/slog"
	"math"

	"ridecore/internal/types"
)

type configSource interface {
	GetConfig(ctx context.Context) (Config, error)
}

type Service struct {
	store configSource
	log   *slog.Logger
}

func NewService(store configSource, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// Quote prices a trip. A config lookup failure degrades to DefaultConfig.
func (s *Service) Quote(ctx context.Context, distanceKm float64, durationMin int, tier Tier) types.Money {
	return Fare(s.config(ctx), tier, distanceKm, durationMin)
}

func (s *Service) config(ctx context.Context) Config {
	if s.store == nil {
		return DefaultConfig()
	}
	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		s.log.Warn("pricing config unavailable, using defaults", "error", err)
		return DefaultConfig()
	}
	return cfg
}

// Fare applies the tier rates and the minimum-fare floor, rounded half-up to the cent.
func Fare(cfg Config, tier Tier, distanceKm float64, durationMin int) types.Money {
	r := cfg.ForTier(tier)
	d := math.Max(distanceKm, 0)
	m := math.Max(float64(durationMin), 0)

	fare := r.BaseFare + d*r.PerKmRate + m*r.PerMinuteRate
	fare = math.Max(fare, r.BaseFare*minimumFareFactor)
	return types.Cents(fare)
}
