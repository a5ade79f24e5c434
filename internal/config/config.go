// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Volatility VolatilityConfig `mapstructure:"volatility"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SimulationConfig holds Monte Carlo simulation configuration.
type SimulationConfig struct {
	Paths        int     `mapstructure:"paths"`
	Workers      int     `mapstructure:"workers"`
	RiskFreeRate float64 `mapstructure:"risk_free_rate"`
}

// VolatilityConfig holds volatility mixing configuration.
type VolatilityConfig struct {
	LookbackDays int     `mapstructure:"lookback_days"`
	IVWeight     float64 `mapstructure:"iv_weight"`
	HVWeight     float64 `mapstructure:"hv_weight"`
	DynamicBlend bool    `mapstructure:"dynamic_blend"`
}

// BacktestConfig holds backtest validation configuration.
type BacktestConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Budget     time.Duration `mapstructure:"budget"`
	PremiumPct float64       `mapstructure:"premium_pct"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/optionfill"
	}
	return filepath.Join(home, ".config", "optionfill")
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Paths:        10000,
			Workers:      4,
			RiskFreeRate: 0.05,
		},
		Volatility: VolatilityConfig{
			LookbackDays: 90,
			IVWeight:     0.6,
			HVWeight:     0.4,
			DynamicBlend: true,
		},
		Backtest: BacktestConfig{
			Enabled:    true,
			Budget:     3 * time.Second,
			PremiumPct: 0.10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config file is not an error; defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	defaults := Default()
	v.SetDefault("simulation.paths", defaults.Simulation.Paths)
	v.SetDefault("simulation.workers", defaults.Simulation.Workers)
	v.SetDefault("simulation.risk_free_rate", defaults.Simulation.RiskFreeRate)
	v.SetDefault("volatility.lookback_days", defaults.Volatility.LookbackDays)
	v.SetDefault("volatility.iv_weight", defaults.Volatility.IVWeight)
	v.SetDefault("volatility.hv_weight", defaults.Volatility.HVWeight)
	v.SetDefault("volatility.dynamic_blend", defaults.Volatility.DynamicBlend)
	v.SetDefault("backtest.enabled", defaults.Backtest.Enabled)
	v.SetDefault("backtest.budget", defaults.Backtest.Budget)
	v.SetDefault("backtest.premium_pct", defaults.Backtest.PremiumPct)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.console", defaults.Logging.Console)
	v.SetDefault("logging.file", defaults.Logging.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTIONFILL_PATHS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Paths = n
		}
	}
	if v := os.Getenv("OPTIONFILL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Workers = n
		}
	}
	if v := os.Getenv("OPTIONFILL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Simulation.Paths < 1 {
		return fmt.Errorf("simulation.paths must be at least 1")
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation.workers must be at least 1")
	}
	if c.Volatility.LookbackDays < 2 {
		return fmt.Errorf("volatility.lookback_days must be at least 2")
	}
	if c.Volatility.IVWeight < 0 || c.Volatility.HVWeight < 0 {
		return fmt.Errorf("volatility weights must be non-negative")
	}
	sum := c.Volatility.IVWeight + c.Volatility.HVWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("volatility weights must sum to 1.0, got %.2f", sum)
	}
	if c.Backtest.Budget <= 0 {
		return fmt.Errorf("backtest.budget must be positive")
	}
	return nil
}
