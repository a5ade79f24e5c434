package engine

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"optionfill/internal/models"
)

// propertyParams is the fixed contract used across the property suite; only
// volatility and horizon vary per case to keep runs fast.
func propertyParams(vol float64, days int) Parameters {
	return Parameters{
		OptionPrice:  2.50,
		SpotPrice:    182.30,
		Strike:       185,
		DaysToExpiry: days,
		Delta:        0.42,
		Gamma:        0.03,
		Theta:        -0.08,
		Vega:         0.11,
		EffectiveVol: vol,
		RiskFreeRate: 0.05,
		Paths:        2000,
	}
}

func propertyFillProbability(vol float64, days int, limit float64, seed int64) (float64, error) {
	sim := NewSimulator(4)
	matrix, err := sim.Simulate(context.Background(), propertyParams(vol, days), seed)
	if err != nil {
		return 0, err
	}
	stats, err := DetectFills(matrix, limit, models.OrderSideSell)
	if err != nil {
		return 0, err
	}
	return stats.FillProbability, nil
}

func TestProperty_FillStatisticsWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	properties.Property("all probabilities stay in [0, 1] and cumulative table is monotone", prop.ForAll(
		func(vol float64, days int, limitMult float64) bool {
			p := propertyParams(vol, days)
			matrix, err := NewSimulator(4).Simulate(context.Background(), p, 99)
			if err != nil {
				return false
			}
			stats, err := DetectFills(matrix, p.OptionPrice*limitMult, models.OrderSideSell)
			if err != nil {
				return false
			}

			if stats.FillProbability < 0 || stats.FillProbability > 1 {
				return false
			}
			prev := 0.0
			for _, c := range stats.CumulativeProb {
				if c < prev || c > 1 {
					return false
				}
				prev = c
			}
			for _, d := range stats.DailyProb {
				if d < 0 || d > 1 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0.10, 0.80),
		gen.IntRange(5, 30),
		gen.Float64Range(1.0, 1.4),
	))

	properties.TestingRun(t)
}

func TestProperty_ConfidenceIntervalBracketsEstimate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	properties.Property("0 <= lower <= p <= upper <= 1", prop.ForAll(
		func(p float64, samples int) bool {
			m := AnalyzeConfidence(p, samples, nil)
			return m.CILower >= 0 &&
				m.CILower <= p &&
				m.CIUpper >= p &&
				m.CIUpper <= 1 &&
				m.StandardError >= 0
		},
		gen.Float64Range(0, 1),
		gen.IntRange(1, 100000),
	))

	properties.TestingRun(t)
}

func TestProperty_FillProbabilityMonotoneInVolatility(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	// Same seed gives both runs identical normal draws, so the comparison
	// is nearly exact; the tolerance only absorbs floor effects.
	properties.Property("more volatility never hurts an out-of-the-money limit", prop.ForAll(
		func(lowVol, volGap float64, days int) bool {
			limit := 2.50 * 1.2
			low, err := propertyFillProbability(lowVol, days, limit, 7)
			if err != nil {
				return false
			}
			high, err := propertyFillProbability(lowVol+volGap, days, limit, 7)
			if err != nil {
				return false
			}
			return high >= low-0.01
		},
		gen.Float64Range(0.10, 0.40),
		gen.Float64Range(0.10, 0.40),
		gen.IntRange(5, 25),
	))

	properties.TestingRun(t)
}

func TestProperty_FillProbabilityMonotoneInHorizon(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	// Different horizons shift the random draws between runs, so Monte
	// Carlo noise needs a wider tolerance than the volatility property.
	properties.Property("more time never hurts fill probability", prop.ForAll(
		func(vol float64, shortDays, extraDays int) bool {
			limit := 2.50 * 1.2
			short, err := propertyFillProbability(vol, shortDays, limit, 7)
			if err != nil {
				return false
			}
			long, err := propertyFillProbability(vol, shortDays+extraDays, limit, 7)
			if err != nil {
				return false
			}
			return long >= short-0.04
		},
		gen.Float64Range(0.15, 0.50),
		gen.IntRange(5, 15),
		gen.IntRange(5, 20),
	))

	properties.TestingRun(t)
}

func TestProperty_HistoricalVolatilityNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	properties.Property("HV of any positive close series is non-negative and finite", prop.ForAll(
		func(closes []float64) bool {
			hv := HistoricalVolatility(closes)
			return hv >= 0 && !math.IsNaN(hv) && !math.IsInf(hv, 0)
		},
		gen.SliceOfN(120, gen.Float64Range(1.0, 1000.0)),
	))

	properties.TestingRun(t)
}

func TestProperty_BlackScholesAboveIntrinsic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	properties.Property("call price is at least discounted intrinsic and never negative", prop.ForAll(
		func(spot, strike, sigma, T float64) bool {
			price := BlackScholes(models.OptionTypeCall, spot, strike, 0.05, sigma, T)
			if price < 0 || math.IsNaN(price) {
				return false
			}
			intrinsic := spot - strike*math.Exp(-0.05*T)
			return price >= intrinsic-1e-9
		},
		gen.Float64Range(50, 500),
		gen.Float64Range(50, 500),
		gen.Float64Range(0.05, 1.0),
		gen.Float64Range(0.01, 2.0),
	))

	properties.TestingRun(t)
}
