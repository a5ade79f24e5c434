package store

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"optionfill/internal/models"
)

// candleRow is the CSV representation of one daily candle.
type candleRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

const csvDateLayout = "2006-01-02"

// ReadCandlesCSV parses an OHLCV CSV file into candles, oldest first.
func ReadCandlesCSV(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	var rows []candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		ts, err := time.Parse(csvDateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q: %w", i+1, row.Date, err)
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}

	return candles, nil
}

// WriteCandlesCSV writes candles to an OHLCV CSV file.
func WriteCandlesCSV(path string, candles []models.Candle) error {
	rows := make([]candleRow, len(candles))
	for i, c := range candles {
		rows[i] = candleRow{
			Date:   c.Timestamp.Format(csvDateLayout),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
