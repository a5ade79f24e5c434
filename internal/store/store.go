// Package store provides persistence for historical market data.
package store

import (
	"context"
	"time"

	"optionfill/internal/models"
)

// HistoryStore defines the interface for historical price persistence.
// Only market data is stored; simulation results are never persisted.
type HistoryStore interface {
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error)
	GetRecentCandles(ctx context.Context, symbol string, limit int) ([]models.Candle, error)
	ListSymbols(ctx context.Context) ([]string, error)
	Close() error
}
