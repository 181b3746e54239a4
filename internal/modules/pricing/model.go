// README: Pricing configuration and per-tier multipliers.
package pricing

import "strings"

type Tier string

const (
	TierEconomy Tier = "economy"
	TierComfort Tier = "comfort"
	TierLuxury  Tier = "luxury"
)

// ParseTier maps unknown or empty values to economy.
func ParseTier(v string) Tier {
	switch t := Tier(strings.ToLower(strings.TrimSpace(v))); t {
	case TierComfort, TierLuxury:
		return t
	default:
		return TierEconomy
	}
}

// Config holds the economy rates; other tiers are derived via multipliers.
type Config struct {
	BaseFare      float64 `json:"base_fare"`
	PerKmRate     float64 `json:"per_km_rate"`
	PerMinuteRate float64 `json:"per_minute_rate"`
}

func DefaultConfig() Config {
	return Config{BaseFare: 3.50, PerKmRate: 1.20, PerMinuteRate: 0.25}
}

type multiplier struct {
	base, perKm, perMinute float64
}

var tierMultipliers = map[Tier]multiplier{
	TierEconomy: {base: 1.0, perKm: 1.0, perMinute: 1.0},
	TierComfort: {base: 1.5, perKm: 1.4, perMinute: 1.3},
	TierLuxury:  {base: 2.2, perKm: 2.0, perMinute: 1.8},
}

// minimumFareFactor sets the floor as a multiple of the tier's base fare.
const minimumFareFactor = 1.5

// ForTier returns the effective rates for tier.
func (c Config) ForTier(tier Tier) Config {
	m, ok := tierMultipliers[tier]
	if !ok {
		m = tierMultipliers[TierEconomy]
	}
	return Config{
		BaseFare:      c.BaseFare * m.base,
		PerKmRate:     c.PerKmRate * m.perKm,
		PerMinuteRate: c.PerMinuteRate * m.perMinute,
	}
}
