// Package engine implements the limit order fill probability engine:
// volatility mixing, Monte Carlo price path simulation, fill detection,
// confidence scoring, self-validation and recommendations.
package engine

import (
	"optionfill/internal/errors"
)

const (
	// minVolatility is the floor applied to effective volatility to avoid
	// degenerate (zero or negative) diffusion.
	minVolatility = 1e-4

	// tradingDaysPerYear is used to annualize historical volatility.
	tradingDaysPerYear = 252

	// dayFraction is the simulation time step in years.
	dayFraction = 1.0 / 365.0
)

// Parameters holds the immutable inputs of a single simulation run.
// Constructed once per request and never mutated afterwards.
type Parameters struct {
	OptionPrice   float64
	SpotPrice     float64
	Strike        float64
	DaysToExpiry  int
	Delta         float64
	Gamma         float64
	Theta         float64 // per day
	Vega          float64
	ImpliedVol    float64
	HistoricalVol float64
	EffectiveVol  float64
	RiskFreeRate  float64
	Paths         int
}

// Validate checks the invariants required before simulation.
func (p Parameters) Validate() error {
	if p.DaysToExpiry <= 0 {
		return errors.NewValidationError("days_to_expiry", p.DaysToExpiry, "must be positive")
	}
	if p.OptionPrice <= 0 {
		return errors.NewValidationError("option_price", p.OptionPrice, "must be positive")
	}
	if p.EffectiveVol <= 0 {
		return errors.NewValidationError("effective_vol", p.EffectiveVol, "must be positive")
	}
	if p.Paths < 1 {
		return errors.NewValidationError("paths", p.Paths, "must be at least 1")
	}
	return nil
}

// clampVolatility floors a volatility at minVolatility.
func clampVolatility(vol float64) float64 {
	if vol < minVolatility {
		return minVolatility
	}
	return vol
}
