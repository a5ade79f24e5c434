package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"optionfill/internal/engine"
	"optionfill/internal/errors"
	"optionfill/internal/store"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage historical price data",
		Long: `Import and inspect the daily closing prices used for historical
volatility and backtest validation.`,
	}

	cmd.AddCommand(newDataImportCmd(app))
	cmd.AddCommand(newDataShowCmd(app))

	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "import SYMBOL",
		Short: "Import daily OHLCV candles from a CSV file",
		Long: `Import daily candles for a symbol from a CSV file with columns
date,open,high,low,close,volume (date formatted as YYYY-MM-DD).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.ErrDatabaseError
			}

			symbol := strings.ToUpper(args[0])
			candles, err := store.ReadCandlesCSV(csvPath)
			if err != nil {
				return err
			}
			if len(candles) == 0 {
				return errors.NewDataError("candles", symbol, "csv file contains no rows", nil)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := app.Store.SaveCandles(ctx, symbol, candles); err != nil {
				return errors.Wrap(err, "saving candles")
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":   symbol,
					"imported": len(candles),
				})
			}
			output.Success("Imported %d candles for %s", len(candles), symbol)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the OHLCV CSV file (required)")
	cmd.MarkFlagRequired("csv")

	return cmd
}

func newDataShowCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show [SYMBOL]",
		Short: "Show stored symbols or recent candles for a symbol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return errors.ErrDatabaseError
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if len(args) == 0 {
				symbols, err := app.Store.ListSymbols(ctx)
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(symbols)
				}
				if len(symbols) == 0 {
					output.Dim("No symbols stored. Use 'optionfill data import' first.")
					return nil
				}
				for _, s := range symbols {
					output.Println(s)
				}
				return nil
			}

			symbol := strings.ToUpper(args[0])
			candles, err := app.Store.GetRecentCandles(ctx, symbol, limit)
			if err != nil {
				return err
			}
			if len(candles) == 0 {
				return errors.NewDataError("candles", symbol, "no stored candles", errors.ErrDataNotFound)
			}

			if output.IsJSON() {
				return output.JSON(candles)
			}

			table := tablewriter.NewWriter(output.Writer())
			table.Header("Date", "Open", "High", "Low", "Close", "Volume")
			for _, c := range candles {
				table.Append(
					c.Timestamp.Format("2006-01-02"),
					fmt.Sprintf("%.2f", c.Open),
					fmt.Sprintf("%.2f", c.High),
					fmt.Sprintf("%.2f", c.Low),
					fmt.Sprintf("%.2f", c.Close),
					fmt.Sprintf("%d", c.Volume),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent candles to show")

	return cmd
}

// dayTableRow is the CSV representation of one day of the probability table.
type dayTableRow struct {
	Day        int     `csv:"day"`
	Daily      float64 `csv:"daily_prob"`
	Cumulative float64 `csv:"cumulative_prob"`
}

// writeDayTableCSV exports the day-by-day probability table of a report.
func writeDayTableCSV(path string, report *engine.Report) error {
	rows := make([]dayTableRow, 0, len(report.Fill.CumulativeProb))
	for d := 0; d < len(report.Fill.CumulativeProb); d++ {
		rows = append(rows, dayTableRow{
			Day:        d,
			Daily:      report.Fill.DailyProb[d],
			Cumulative: report.Fill.CumulativeProb[d],
		})
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
