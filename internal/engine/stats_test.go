package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeConfidenceStandardError(t *testing.T) {
	m := AnalyzeConfidence(0.5, 10000, nil)

	expectedSE := math.Sqrt(0.5 * 0.5 / 10000)
	assert.InDelta(t, expectedSE, m.StandardError, 1e-12)
	assert.InDelta(t, 0.5-1.96*expectedSE, m.CILower, 1e-12)
	assert.InDelta(t, 0.5+1.96*expectedSE, m.CIUpper, 1e-12)
}

func TestAnalyzeConfidenceClampsInterval(t *testing.T) {
	low := AnalyzeConfidence(0.001, 100, nil)
	assert.GreaterOrEqual(t, low.CILower, 0.0)

	high := AnalyzeConfidence(0.999, 100, nil)
	assert.LessOrEqual(t, high.CIUpper, 1.0)
}

func TestAnalyzeConfidenceShrinksWithSampleSize(t *testing.T) {
	small := AnalyzeConfidence(0.5, 100, nil)
	large := AnalyzeConfidence(0.5, 10000, nil)

	assert.Less(t, large.StandardError, small.StandardError)
	assert.Less(t, large.CIUpper-large.CILower, small.CIUpper-small.CILower)
}

func TestAnalyzeConfidenceLevelsWithoutBacktest(t *testing.T) {
	// SE below 0.05 is medium, otherwise low.
	medium := AnalyzeConfidence(0.5, 10000, nil)
	assert.Equal(t, ConfidenceMedium, medium.Level)
	assert.False(t, medium.BasedOnBacktest)

	low := AnalyzeConfidence(0.5, 50, nil)
	assert.Equal(t, ConfidenceLow, low.Level)
}

func TestAnalyzeConfidenceLevelsWithBacktest(t *testing.T) {
	cases := []struct {
		name     string
		backtest BacktestResult
		expected ConfidenceLevel
	}{
		{"high on tight MAE and many samples", BacktestResult{Available: true, Samples: 60, MAE: 0.05}, ConfidenceHigh},
		{"medium on moderate MAE", BacktestResult{Available: true, Samples: 40, MAE: 0.12}, ConfidenceMedium},
		{"low on loose MAE", BacktestResult{Available: true, Samples: 40, MAE: 0.25}, ConfidenceLow},
		{"low on too few samples", BacktestResult{Available: true, Samples: 10, MAE: 0.05}, ConfidenceLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := AnalyzeConfidence(0.5, 10000, &tc.backtest)
			assert.Equal(t, tc.expected, m.Level)
			assert.True(t, m.BasedOnBacktest)
		})
	}
}

func TestAnalyzeConfidenceIgnoresUnavailableBacktest(t *testing.T) {
	bt := BacktestResult{Available: false, Reason: "insufficient historical data"}

	m := AnalyzeConfidence(0.5, 10000, &bt)

	assert.False(t, m.BasedOnBacktest)
	assert.Equal(t, ConfidenceMedium, m.Level)
}

func TestAnalyzeConfidenceIdempotent(t *testing.T) {
	bt := BacktestResult{Available: true, Samples: 60, MAE: 0.05}

	first := AnalyzeConfidence(0.42, 5000, &bt)
	second := AnalyzeConfidence(0.42, 5000, &bt)

	assert.Equal(t, first, second)
}
