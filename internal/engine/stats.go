package engine

import "math"

// ConfidenceLevel is a qualitative confidence label.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceMetrics scores a fill probability estimate. The 95% interval
// uses the binomial proportion standard error, clamped to [0,1].
type ConfidenceMetrics struct {
	StandardError   float64
	CILower         float64
	CIUpper         float64
	Level           ConfidenceLevel
	BasedOnBacktest bool
}

const z95 = 1.96

// AnalyzeConfidence converts a probability estimate and sample size into
// confidence metrics. When a usable backtest result is supplied, the
// qualitative level is derived from backtest sample size and MAE instead
// of the standard error alone. Pure function: identical inputs always
// produce identical outputs.
func AnalyzeConfidence(prob float64, samples int, backtest *BacktestResult) ConfidenceMetrics {
	var se float64
	if samples > 0 {
		se = math.Sqrt(prob * (1 - prob) / float64(samples))
	}

	metrics := ConfidenceMetrics{
		StandardError: se,
		CILower:       clamp01(prob - z95*se),
		CIUpper:       clamp01(prob + z95*se),
	}

	if backtest != nil && backtest.Available {
		metrics.BasedOnBacktest = true
		switch {
		case backtest.MAE < 0.10 && backtest.Samples >= 50:
			metrics.Level = ConfidenceHigh
		case backtest.MAE < 0.15 && backtest.Samples >= 30:
			metrics.Level = ConfidenceMedium
		default:
			metrics.Level = ConfidenceLow
		}
		return metrics
	}

	if se < 0.05 {
		metrics.Level = ConfidenceMedium
	} else {
		metrics.Level = ConfidenceLow
	}
	return metrics
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
