package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionfill/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dailyCandles(n int, startClose float64) []models.Candle {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		c := startClose + float64(i)
		candles[i] = models.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    int64(1000 + i),
		}
	}
	return candles
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candles := dailyCandles(10, 100)
	require.NoError(t, s.SaveCandles(ctx, "AAPL", candles))

	got, err := s.GetRecentCandles(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, got, 10)

	for i, c := range got {
		assert.Equal(t, candles[i].Close, c.Close)
		assert.Equal(t, candles[i].Volume, c.Volume)
		assert.True(t, candles[i].Timestamp.Equal(c.Timestamp))
	}
}

func TestSQLiteStoreRecentCandlesOrderedOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "AAPL", dailyCandles(30, 100)))

	got, err := s.GetRecentCandles(ctx, "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)

	// The five most recent closes, oldest first.
	assert.Equal(t, 125.0, got[0].Close)
	assert.Equal(t, 129.0, got[4].Close)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Timestamp.After(got[i-1].Timestamp))
	}
}

func TestSQLiteStoreReplacesDuplicateDays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candles := dailyCandles(5, 100)
	require.NoError(t, s.SaveCandles(ctx, "AAPL", candles))

	// Re-import the same days with corrected closes.
	for i := range candles {
		candles[i].Close += 10
	}
	require.NoError(t, s.SaveCandles(ctx, "AAPL", candles))

	got, err := s.GetRecentCandles(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 110.0, got[0].Close)
}

func TestSQLiteStoreGetCandlesRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candles := dailyCandles(10, 100)
	require.NoError(t, s.SaveCandles(ctx, "AAPL", candles))

	got, err := s.GetCandles(ctx, "AAPL", candles[2].Timestamp, candles[6].Timestamp)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestSQLiteStoreListSymbols(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "TSLA", dailyCandles(3, 200)))
	require.NoError(t, s.SaveCandles(ctx, "AAPL", dailyCandles(3, 100)))

	symbols, err := s.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, symbols)
}

func TestSQLiteStoreUnknownSymbol(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetRecentCandles(context.Background(), "NOPE", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	candles := dailyCandles(7, 100)

	require.NoError(t, WriteCandlesCSV(path, candles))

	got, err := ReadCandlesCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 7)

	for i, c := range got {
		assert.Equal(t, candles[i].Close, c.Close)
		assert.Equal(t, candles[i].Timestamp.Format("2006-01-02"), c.Timestamp.Format("2006-01-02"))
	}
}

func TestCSVRejectsBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,open,high,low,close,volume\nnot-a-date,1,2,0.5,1.5,100\n"), 0o644))

	_, err := ReadCandlesCSV(path)
	assert.Error(t, err)
}
