package engine

import (
	"context"
	"math"
	"sync"

	"optionfill/internal/models"
)

// ValidationReport holds pass/fail results for the theoretical boundary
// tests run against the simulator itself.
type ValidationReport struct {
	CertainFill          bool // limit at current price fills immediately
	ZeroVolDeterministic bool // near-zero vol collapses the terminal distribution
	VolMonotonic         bool // higher vol never lowers OTM fill probability
	TimeMonotonic        bool // longer horizon never lowers fill probability
	ThetaNegative        bool // short-dated theta is negative
	SideSymmetry         bool // buy and sell detection stay in [0,1]
	AllPassed            bool
}

// validationSeed keeps the battery deterministic across runs.
const validationSeed = 42

// validationPaths is deliberately small; the battery validates the model,
// not a production request.
const validationPaths = 2000

// TheoreticalValidator exercises the simulator against known boundary
// truths. The battery runs once per process and is cached; it depends only
// on the model, never on a specific request.
type TheoreticalValidator struct {
	sim *Simulator

	once   sync.Once
	cached ValidationReport
}

// NewTheoreticalValidator creates a validator backed by the given simulator.
func NewTheoreticalValidator(sim *Simulator) *TheoreticalValidator {
	return &TheoreticalValidator{sim: sim}
}

// Validate runs the boundary battery (cached after the first call).
func (v *TheoreticalValidator) Validate() ValidationReport {
	v.once.Do(func() {
		v.cached = v.run()
	})
	return v.cached
}

// baselineParams is the canonical fixture the battery is run against.
func baselineParams() Parameters {
	return Parameters{
		OptionPrice:  2.50,
		SpotPrice:    100,
		Strike:       105,
		DaysToExpiry: 15,
		Delta:        0.42,
		Gamma:        0.03,
		Theta:        -0.08,
		Vega:         0.11,
		EffectiveVol: 0.34,
		RiskFreeRate: 0.05,
		Paths:        validationPaths,
	}
}

func (v *TheoreticalValidator) run() ValidationReport {
	ctx := context.Background()
	base := baselineParams()

	report := ValidationReport{
		ThetaNegative: base.Theta < 0,
	}

	// 1. Selling at the current price: paths start at the threshold.
	if matrix, err := v.sim.Simulate(ctx, base, validationSeed); err == nil {
		if stats, err := DetectFills(matrix, base.OptionPrice, models.OrderSideSell); err == nil {
			report.CertainFill = stats.FillProbability >= 0.99
		}

		// 6. Both sides produce in-range probabilities on a shared path set.
		buyStats, buyErr := DetectFills(matrix, base.OptionPrice*0.85, models.OrderSideBuy)
		sellStats, sellErr := DetectFills(matrix, base.OptionPrice*1.15, models.OrderSideSell)
		report.SideSymmetry = buyErr == nil && sellErr == nil &&
			inUnitRange(buyStats.FillProbability) && inUnitRange(sellStats.FillProbability)
	}

	// 2. Near-zero volatility collapses the terminal distribution.
	degenerate := base
	degenerate.EffectiveVol = minVolatility
	if matrix, err := v.sim.Simulate(ctx, degenerate, validationSeed); err == nil {
		report.ZeroVolDeterministic = stdDev(matrix.TerminalPrices()) < 0.01
	}

	// 3. Monotonicity in volatility for an out-of-the-money limit.
	otmLimit := base.OptionPrice * 1.20
	lowVol, highVol := base, base
	lowVol.EffectiveVol = 0.20
	highVol.EffectiveVol = 0.50
	pLow, okLow := v.fillProbability(ctx, lowVol, otmLimit)
	pHigh, okHigh := v.fillProbability(ctx, highVol, otmLimit)
	report.VolMonotonic = okLow && okHigh && pHigh >= pLow-0.01

	// 4. Monotonicity in time for a fixed target.
	short, long := base, base
	short.DaysToExpiry = 7
	long.DaysToExpiry = 30
	pShort, okShort := v.fillProbability(ctx, short, otmLimit)
	pLong, okLong := v.fillProbability(ctx, long, otmLimit)
	report.TimeMonotonic = okShort && okLong && pLong >= pShort-0.01

	report.AllPassed = report.CertainFill &&
		report.ZeroVolDeterministic &&
		report.VolMonotonic &&
		report.TimeMonotonic &&
		report.ThetaNegative &&
		report.SideSymmetry

	return report
}

func (v *TheoreticalValidator) fillProbability(ctx context.Context, p Parameters, limit float64) (float64, bool) {
	matrix, err := v.sim.Simulate(ctx, p, validationSeed)
	if err != nil {
		return 0, false
	}
	stats, err := DetectFills(matrix, limit, models.OrderSideSell)
	if err != nil {
		return 0, false
	}
	return stats.FillProbability, true
}

func inUnitRange(p float64) bool {
	return p >= 0 && p <= 1
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
