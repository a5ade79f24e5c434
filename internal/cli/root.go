package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"optionfill/internal/config"
	"optionfill/internal/engine"
	"optionfill/internal/logging"
	"optionfill/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Engine *engine.Engine
	Store  store.HistoryStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Engine: engine.New(cfg, logger),
	}

	dbPath := config.DefaultConfigDir() + "/optionfill.db"
	historyStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize history store, predictions fall back to IV-only volatility")
	} else {
		app.Store = historyStore
	}

	rootCmd := &cobra.Command{
		Use:   "optionfill",
		Short: "Limit order fill probability engine for option contracts",
		Long: `optionfill predicts whether a resting limit order on an option contract
will be filled before expiry, and if so, roughly when.

It runs a Monte Carlo price path simulation driven by the option's Greeks
and a blend of implied and historical volatility, then reduces the paths
into fill probabilities, confidence intervals and limit price suggestions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/optionfill)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newPredictCmd(app))
	rootCmd.AddCommand(newValidateCmd(app))
	rootCmd.AddCommand(newDataCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("optionfill v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Simulation")
	output.Printf("  Paths:           %d\n", cfg.Simulation.Paths)
	output.Printf("  Workers:         %d\n", cfg.Simulation.Workers)
	output.Printf("  Risk-free rate:  %.2f%%\n", cfg.Simulation.RiskFreeRate*100)
	output.Println()

	output.Bold("Volatility")
	output.Printf("  Lookback days:   %d\n", cfg.Volatility.LookbackDays)
	output.Printf("  IV/HV weights:   %.2f / %.2f\n", cfg.Volatility.IVWeight, cfg.Volatility.HVWeight)
	output.Printf("  Dynamic blend:   %v\n", cfg.Volatility.DynamicBlend)
	output.Println()

	output.Bold("Backtest")
	output.Printf("  Enabled:         %v\n", cfg.Backtest.Enabled)
	output.Printf("  Budget:          %s\n", cfg.Backtest.Budget)
	output.Printf("  Premium:         %.0f%%\n", cfg.Backtest.PremiumPct*100)
}

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the theoretical validation battery against the simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			report := app.Engine.ValidateModel()

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Bold("Theoretical Validation")
			printCheck(output, "Certain fill at current price", report.CertainFill)
			printCheck(output, "Zero volatility is deterministic", report.ZeroVolDeterministic)
			printCheck(output, "Monotonic in volatility", report.VolMonotonic)
			printCheck(output, "Monotonic in time", report.TimeMonotonic)
			printCheck(output, "Theta is negative", report.ThetaNegative)
			printCheck(output, "Buy/sell symmetry", report.SideSymmetry)
			output.Println()
			if report.AllPassed {
				output.Success("All checks passed")
			} else {
				output.Error("Some checks failed")
			}
			return nil
		},
	}
}

func printCheck(output *Output, name string, passed bool) {
	if passed {
		output.Printf("  [PASS] %s\n", name)
	} else {
		output.Printf("  [FAIL] %s\n", name)
	}
}
