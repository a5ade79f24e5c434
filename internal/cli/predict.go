package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"optionfill/internal/engine"
	"optionfill/internal/models"
	"optionfill/pkg/utils"
)

// predictFlags holds the flags of the predict command.
type predictFlags struct {
	symbol     string
	strike     float64
	optionType string
	price      float64
	spot       float64
	limit      float64
	side       string
	days       int
	paths      int
	seed       int64
	delta      float64
	gamma      float64
	theta      float64
	vega       float64
	iv         float64
	csvOut     string
	noBacktest bool
	fullTable  bool
}

func newPredictCmd(app *App) *cobra.Command {
	flags := &predictFlags{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the fill probability of a resting limit order",
		Long: `Predict whether a limit order on an option contract will fill before
expiry, and roughly when.

Greeks are supplied on the command line (as exported by your option-chain
provider). Historical closes for the underlying are read from the local
history store when available; without them the engine falls back to
implied volatility only and skips the backtest.`,
		Example: `  optionfill predict --symbol AAPL --strike 185 --type put \
    --price 2.50 --spot 182.30 --limit 2.80 --side sell --days 15 \
    --delta -0.42 --gamma 0.03 --theta -0.08 --vega 0.11 --iv 0.31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.symbol, "symbol", "", "underlying symbol (required)")
	cmd.Flags().Float64Var(&flags.strike, "strike", 0, "strike price (required)")
	cmd.Flags().StringVar(&flags.optionType, "type", "call", "option type: call or put")
	cmd.Flags().Float64Var(&flags.price, "price", 0, "current option price (required)")
	cmd.Flags().Float64Var(&flags.spot, "spot", 0, "current underlying price (required)")
	cmd.Flags().Float64Var(&flags.limit, "limit", 0, "target limit price (required)")
	cmd.Flags().StringVar(&flags.side, "side", "sell", "order side: buy or sell")
	cmd.Flags().IntVar(&flags.days, "days", 0, "days to expiry / analysis window (required)")
	cmd.Flags().IntVar(&flags.paths, "paths", 0, "simulation path count (default from config)")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "random seed for reproducible runs")
	cmd.Flags().Float64Var(&flags.delta, "delta", 0, "option delta")
	cmd.Flags().Float64Var(&flags.gamma, "gamma", 0, "option gamma")
	cmd.Flags().Float64Var(&flags.theta, "theta", 0, "option theta per day")
	cmd.Flags().Float64Var(&flags.vega, "vega", 0, "option vega")
	cmd.Flags().Float64Var(&flags.iv, "iv", 0, "implied volatility, annualized")
	cmd.Flags().StringVar(&flags.csvOut, "csv", "", "write the day-by-day probability table to a CSV file")
	cmd.Flags().BoolVar(&flags.noBacktest, "no-backtest", false, "skip the historical backtest")
	cmd.Flags().BoolVar(&flags.fullTable, "full-table", false, "print every day of the probability table")

	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("strike")
	cmd.MarkFlagRequired("price")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("limit")
	cmd.MarkFlagRequired("days")

	return cmd
}

func runPredict(cmd *cobra.Command, app *App, flags *predictFlags) error {
	output := NewOutput(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req := engine.Request{
		Quote: models.OptionQuote{
			Symbol:    strings.ToUpper(flags.symbol),
			Strike:    flags.strike,
			Type:      models.OptionType(strings.ToUpper(flags.optionType)),
			LastPrice: flags.price,
			SpotPrice: flags.spot,
			Greeks: models.OptionGreeks{
				Delta: flags.delta,
				Gamma: flags.gamma,
				Theta: flags.theta,
				Vega:  flags.vega,
				IV:    flags.iv,
			},
		},
		LimitPrice:  flags.limit,
		Side:        models.OrderSide(strings.ToUpper(flags.side)),
		HorizonDays: flags.days,
		Paths:       flags.paths,
		Seed:        flags.seed,
	}

	if app.Store != nil {
		lookback := app.Config.Volatility.LookbackDays
		history, err := app.Store.GetRecentCandles(ctx, req.Quote.Symbol, lookback*2)
		if err != nil {
			app.Logger.Warn().Err(err).Str("symbol", req.Quote.Symbol).Msg("Failed to load history")
		} else {
			req.History = history
		}
	}

	eng := app.Engine
	if flags.noBacktest {
		cfg := *app.Config
		cfg.Backtest.Enabled = false
		eng = engine.New(&cfg, app.Logger)
	}

	report, err := eng.Predict(ctx, req)
	if err != nil {
		return err
	}

	if flags.csvOut != "" {
		if err := writeDayTableCSV(flags.csvOut, report); err != nil {
			return err
		}
		if !output.IsJSON() {
			output.Dim("Day table written to %s", flags.csvOut)
		}
	}

	if output.IsJSON() {
		return output.JSON(report)
	}

	renderReport(output, report, flags.fullTable)
	return nil
}

func renderReport(output *Output, report *engine.Report, fullTable bool) {
	output.Bold("%s %s limit %s", report.Symbol, report.Side, utils.FormatPrice(report.LimitPrice))
	output.Printf("  Request:        %s\n", report.RequestID)
	output.Printf("  Horizon:        %d days, %d paths\n", report.Params.DaysToExpiry, report.Params.Paths)
	output.Printf("  Volatility:     %.1f%% effective (%s, IV %.1f%% / HV %.1f%%)\n",
		report.Volatility.Effective*100, report.Volatility.Method,
		report.Volatility.Implied*100, report.Volatility.Historical*100)
	if report.Volatility.UsedFallback {
		output.Warning("  Historical data unavailable; volatility fell back to IV only")
	}
	output.Println()

	output.Bold("Fill probability: %s", utils.FormatPercent(report.Fill.FillProbability))
	output.Printf("  95%% CI:         [%s, %s]  (SE %.4f)\n",
		utils.FormatPercent(report.Confidence.CILower),
		utils.FormatPercent(report.Confidence.CIUpper),
		report.Confidence.StandardError)
	output.Printf("  Confidence:     %s\n", report.Confidence.Level)
	if report.Fill.AnyFilled {
		output.Printf("  Days to fill:   mean %s, median %s (P25 %s / P75 %s / P90 %s)\n",
			utils.FormatDays(report.Fill.ExpectedDays),
			utils.FormatDays(report.Fill.MedianDays),
			utils.FormatDays(report.Fill.Percentiles.P25),
			utils.FormatDays(report.Fill.Percentiles.P75),
			utils.FormatDays(report.Fill.Percentiles.P90))
	}
	output.Println()

	renderValidation(output, report)
	renderDayTable(output, report, fullTable)
	renderRecommendation(output, report)
}

func renderValidation(output *Output, report *engine.Report) {
	if report.Validation.AllPassed {
		output.Dim("Model validation: all theoretical checks passed")
	} else {
		output.Warning("Model validation: some theoretical checks FAILED")
	}

	if report.Backtest.Available {
		output.Printf("Backtest: %d windows, actual fill rate %s, MAE %.3f\n",
			report.Backtest.Samples,
			utils.FormatPercent(report.Backtest.ActualFillRate),
			report.Backtest.MAE)
	} else {
		output.Dim("Backtest unavailable: %s", report.Backtest.Reason)
	}
	output.Println()
}

func renderDayTable(output *Output, report *engine.Report, fullTable bool) {
	days := len(report.Fill.CumulativeProb) - 1
	if days < 1 {
		return
	}

	step := 1
	if !fullTable && days > 10 {
		step = days / 10
	}

	output.Bold("Cumulative fill probability by day")
	table := tablewriter.NewWriter(output.Writer())
	table.Header("Day", "Daily", "Cumulative")
	for d := 1; d <= days; d += step {
		table.Append(
			fmt.Sprintf("%d", d),
			utils.FormatPercent(report.Fill.DailyProb[d]),
			utils.FormatPercent(report.Fill.CumulativeProb[d]),
		)
	}
	table.Render()
	output.Println()
}

func renderRecommendation(output *Output, report *engine.Report) {
	for _, line := range report.Recommendation.Guidance {
		output.Info("%s", line)
	}
	output.Println()

	if len(report.Recommendation.Alternatives) == 0 {
		return
	}

	output.Bold("Alternative limit prices")
	table := tablewriter.NewWriter(output.Writer())
	table.Header("Scenario", "Limit", "Fill prob", "Est. days")
	for _, alt := range report.Recommendation.Alternatives {
		days := "-"
		if !math.IsNaN(alt.ExpectedDays) {
			days = utils.FormatDays(alt.ExpectedDays)
		}
		table.Append(
			alt.Label,
			utils.FormatPrice(alt.LimitPrice),
			utils.FormatPercent(alt.FillProbability),
			days,
		)
	}
	table.Render()
}
