package engine

import (
	"context"
	"math"

	"optionfill/internal/models"
)

// BacktestResult reports how well the simulator's prediction agrees with
// an independent closed-form replay of history. When Available is false
// the Reason field explains why and every other field is zero.
type BacktestResult struct {
	Available      bool
	Reason         string
	Samples        int
	ActualFillRate float64
	PredictedRate  float64
	MAE            float64
	Reliable       bool
}

// BacktestValidator re-derives expected fill behavior from historical
// underlying closes via Black-Scholes repricing and compares it to the
// simulator's prediction.
type BacktestValidator struct {
	lookback   int
	premiumPct float64
}

// NewBacktestValidator creates a backtest validator.
func NewBacktestValidator(lookback int, premiumPct float64) *BacktestValidator {
	return &BacktestValidator{
		lookback:   lookback,
		premiumPct: premiumPct,
	}
}

// Run walks every rolling window of length daysToExpiry in the lookback
// period: the option is priced at the window start, a synthetic limit is
// set at theoretical*(1+premiumPct), and the window is replayed day by day
// checking whether the limit would have been touched. The empirical fill
// rate is compared to the predicted probability via mean absolute error.
//
// Insufficient history and context expiry both degrade to an unavailable
// result rather than an error; the backtest is discretionary.
func (b *BacktestValidator) Run(ctx context.Context, quote models.OptionQuote, candles []models.Candle, daysToExpiry int, sigma, riskFreeRate, predicted float64) BacktestResult {
	closes := models.Closes(candles)
	if len(closes) < b.lookback {
		return BacktestResult{Reason: "insufficient historical data"}
	}
	if daysToExpiry <= 0 {
		return BacktestResult{Reason: "no time remaining"}
	}

	window := closes
	if len(window) > b.lookback {
		window = window[len(window)-b.lookback:]
	}
	if len(window) <= daysToExpiry {
		return BacktestResult{Reason: "lookback shorter than expiry window"}
	}

	samples := 0
	fills := 0

	for start := 0; start+daysToExpiry < len(window); start++ {
		if ctx.Err() != nil {
			return BacktestResult{Reason: "time budget exceeded"}
		}

		entrySpot := window[start]
		if entrySpot <= 0 {
			continue
		}
		entryPrice := BlackScholes(quote.Type, entrySpot, quote.Strike, riskFreeRate, sigma, float64(daysToExpiry)/365.0)
		if entryPrice <= 0 {
			continue
		}
		syntheticLimit := entryPrice * (1 + b.premiumPct)

		samples++
		for offset := 1; offset <= daysToExpiry; offset++ {
			remaining := float64(daysToExpiry-offset) / 365.0
			repriced := BlackScholes(quote.Type, window[start+offset], quote.Strike, riskFreeRate, sigma, remaining)
			if repriced >= syntheticLimit {
				fills++
				break
			}
		}
	}

	if samples == 0 {
		return BacktestResult{Reason: "no usable windows"}
	}

	actual := float64(fills) / float64(samples)
	mae := math.Abs(actual - predicted)

	return BacktestResult{
		Available:      true,
		Samples:        samples,
		ActualFillRate: actual,
		PredictedRate:  predicted,
		MAE:            mae,
		Reliable:       samples >= 30 && mae < 0.15,
	}
}
