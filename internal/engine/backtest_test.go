package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionfill/internal/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}

func trendingCloses(n int, dailyReturn float64) []float64 {
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price *= math.Exp(dailyReturn)
		closes[i] = price
	}
	return closes
}

func backtestQuote() models.OptionQuote {
	return models.OptionQuote{
		Symbol: "TEST",
		Strike: 100,
		Type:   models.OptionTypeCall,
	}
}

func TestBacktestRisingMarketFillsCalls(t *testing.T) {
	validator := NewBacktestValidator(60, 0.10)
	history := candlesFromCloses(trendingCloses(80, 0.01))

	result := validator.Run(context.Background(), backtestQuote(), history, 10, 0.30, 0.05, 0.9)

	require.True(t, result.Available)
	assert.Equal(t, 50, result.Samples) // 60-day window, 10-day expiry
	assert.Greater(t, result.ActualFillRate, 0.8)
	assert.InDelta(t, math.Abs(result.ActualFillRate-0.9), result.MAE, 1e-9)
}

func TestBacktestFallingMarketNeverFillsCalls(t *testing.T) {
	validator := NewBacktestValidator(60, 0.10)
	history := candlesFromCloses(trendingCloses(80, -0.01))

	result := validator.Run(context.Background(), backtestQuote(), history, 10, 0.30, 0.05, 0.1)

	require.True(t, result.Available)
	assert.Less(t, result.ActualFillRate, 0.2)
}

func TestBacktestInsufficientHistory(t *testing.T) {
	validator := NewBacktestValidator(60, 0.10)
	history := candlesFromCloses(trendingCloses(20, 0.01))

	result := validator.Run(context.Background(), backtestQuote(), history, 10, 0.30, 0.05, 0.5)

	assert.False(t, result.Available)
	assert.Equal(t, "insufficient historical data", result.Reason)
	assert.Zero(t, result.Samples)
}

func TestBacktestExpiryLongerThanLookback(t *testing.T) {
	validator := NewBacktestValidator(60, 0.10)
	history := candlesFromCloses(trendingCloses(80, 0.01))

	result := validator.Run(context.Background(), backtestQuote(), history, 90, 0.30, 0.05, 0.5)

	assert.False(t, result.Available)
}

func TestBacktestRespectsTimeBudget(t *testing.T) {
	validator := NewBacktestValidator(60, 0.10)
	history := candlesFromCloses(trendingCloses(80, 0.01))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := validator.Run(ctx, backtestQuote(), history, 10, 0.30, 0.05, 0.5)

	assert.False(t, result.Available)
	assert.Equal(t, "time budget exceeded", result.Reason)
}

func TestBacktestMAEAgainstPrediction(t *testing.T) {
	validator := NewBacktestValidator(60, 0.10)
	history := candlesFromCloses(trendingCloses(80, 0.01))

	near := validator.Run(context.Background(), backtestQuote(), history, 10, 0.30, 0.05, 0.95)
	far := validator.Run(context.Background(), backtestQuote(), history, 10, 0.30, 0.05, 0.05)

	require.True(t, near.Available)
	require.True(t, far.Available)
	assert.Less(t, near.MAE, far.MAE)
}
