package engine

import (
	"math"

	"optionfill/internal/models"
)

// BlackScholes returns the closed-form theoretical price of a European
// option. Used by the backtest validator to independently reprice
// historical windows without Monte Carlo.
func BlackScholes(optType models.OptionType, spot, strike, riskFreeRate, sigma, yearsToExpiry float64) float64 {
	if yearsToExpiry <= 0 {
		return intrinsicValue(optType, spot, strike)
	}
	if sigma <= 0 {
		sigma = minVolatility
	}

	sqrtT := math.Sqrt(yearsToExpiry)
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*sigma*sigma)*yearsToExpiry) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	discount := math.Exp(-riskFreeRate * yearsToExpiry)
	if optType == models.OptionTypeCall {
		return spot*normCDF(d1) - strike*discount*normCDF(d2)
	}
	return strike*discount*normCDF(-d2) - spot*normCDF(-d1)
}

// intrinsicValue is the option payoff at expiry.
func intrinsicValue(optType models.OptionType, spot, strike float64) float64 {
	if optType == models.OptionTypeCall {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
