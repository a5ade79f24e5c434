package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"optionfill/internal/config"
	"optionfill/internal/errors"
	"optionfill/internal/logging"
	"optionfill/internal/models"
)

// Request is a single fill-probability prediction request. Each request is
// a stateless, independent simulation run; the engine keeps nothing between
// calls.
type Request struct {
	Quote      models.OptionQuote
	LimitPrice float64
	Side       models.OrderSide

	// HorizonDays overrides the analysis window; 0 means the full
	// days-to-expiry of the contract.
	HorizonDays int

	// Paths overrides the configured path count; 0 means the default.
	Paths int

	// Seed makes a run reproducible; 0 derives a seed from the clock.
	Seed int64

	// History holds daily closes of the underlying, oldest first. May be
	// empty: the volatility mixer falls back to IV and the backtest is
	// reported unavailable.
	History []models.Candle
}

// Report is the complete structured output of one prediction.
type Report struct {
	RequestID  string
	Symbol     string
	Side       models.OrderSide
	LimitPrice float64

	Params         Parameters
	Volatility     VolatilityResult
	Fill           FillStatistics
	Confidence     ConfidenceMetrics
	Validation     ValidationReport
	Backtest       BacktestResult
	Recommendation Recommendation

	Elapsed time.Duration
}

// Engine orchestrates one prediction end to end in strict dependency
// order: volatility mixing, simulation, fill detection, statistics and
// validation, recommendation.
type Engine struct {
	cfg        *config.Config
	logger     zerolog.Logger
	mixer      *VolatilityMixer
	sim        *Simulator
	validator  *TheoreticalValidator
	backtester *BacktestValidator
}

// New creates an engine from configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Engine {
	sim := NewSimulator(cfg.Simulation.Workers)
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		mixer:      NewVolatilityMixer(cfg.Volatility),
		sim:        sim,
		validator:  NewTheoreticalValidator(sim),
		backtester: NewBacktestValidator(cfg.Volatility.LookbackDays, cfg.Backtest.PremiumPct),
	}
}

// ValidateModel runs the theoretical validation battery against the
// simulator and returns the cached report.
func (e *Engine) ValidateModel() ValidationReport {
	return e.validator.Validate()
}

// Predict runs a full prediction. Input-contract violations return hard
// errors; missing history and backtest overruns degrade to metadata in the
// report instead.
func (e *Engine) Predict(ctx context.Context, req Request) (*Report, error) {
	started := time.Now()
	requestID := uuid.New().String()
	logger := logging.WithSymbol(logging.WithRequestID(e.logger, requestID), req.Quote.Symbol)

	horizon, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	vol := e.mixer.Mix(req.Quote.Greeks.IV, models.Closes(req.History))
	if vol.UsedFallback {
		logger.Debug().Str("method", string(vol.Method)).Msg("Volatility fallback used")
	}

	paths := req.Paths
	if paths <= 0 {
		paths = e.cfg.Simulation.Paths
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	params := Parameters{
		OptionPrice:   req.Quote.LastPrice,
		SpotPrice:     req.Quote.SpotPrice,
		Strike:        req.Quote.Strike,
		DaysToExpiry:  horizon,
		Delta:         req.Quote.Greeks.Delta,
		Gamma:         req.Quote.Greeks.Gamma,
		Theta:         req.Quote.Greeks.Theta,
		Vega:          req.Quote.Greeks.Vega,
		ImpliedVol:    req.Quote.Greeks.IV,
		HistoricalVol: vol.Historical,
		EffectiveVol:  vol.Effective,
		RiskFreeRate:  e.cfg.Simulation.RiskFreeRate,
		Paths:         paths,
	}

	matrix, err := e.sim.Simulate(ctx, params, seed)
	if err != nil {
		return nil, errors.Wrap(err, "simulating price paths")
	}
	logging.LogSimulation(logger, req.Quote.Symbol, paths, horizon, time.Since(started))

	stats, err := DetectFills(matrix, req.LimitPrice, req.Side)
	if err != nil {
		return nil, errors.Wrap(err, "detecting fills")
	}

	validation := e.validator.Validate()

	backtest := e.runBacktest(ctx, logger, req, horizon, vol, stats.FillProbability)

	confidence := AnalyzeConfidence(stats.FillProbability, stats.TotalPaths, &backtest)

	recommendation := Recommend(matrix, stats, confidence, req.LimitPrice, req.Quote.LastPrice, req.Side)

	return &Report{
		RequestID:      requestID,
		Symbol:         req.Quote.Symbol,
		Side:           req.Side,
		LimitPrice:     req.LimitPrice,
		Params:         params,
		Volatility:     vol,
		Fill:           stats,
		Confidence:     confidence,
		Validation:     validation,
		Backtest:       backtest,
		Recommendation: recommendation,
		Elapsed:        time.Since(started),
	}, nil
}

// runBacktest runs the discretionary backtest under its time budget. On
// overrun the partial work is abandoned and the report carries an
// unavailable result; the prediction itself is never blocked.
func (e *Engine) runBacktest(ctx context.Context, logger zerolog.Logger, req Request, horizon int, vol VolatilityResult, predicted float64) BacktestResult {
	if !e.cfg.Backtest.Enabled {
		return BacktestResult{Reason: "disabled"}
	}

	btCtx, cancel := context.WithTimeout(ctx, e.cfg.Backtest.Budget)
	defer cancel()

	done := make(chan BacktestResult, 1)
	go func() {
		done <- e.backtester.Run(btCtx, req.Quote, req.History, horizon, vol.Effective, e.cfg.Simulation.RiskFreeRate, predicted)
	}()

	select {
	case result := <-done:
		if !result.Available {
			logging.LogBacktestSkipped(logger, req.Quote.Symbol, result.Reason)
		}
		return result
	case <-btCtx.Done():
		logging.LogBacktestSkipped(logger, req.Quote.Symbol, "time budget exceeded")
		return BacktestResult{Reason: "time budget exceeded"}
	}
}

// validateRequest enforces the input contract and returns the effective
// horizon in days. Violations are never silently fixed.
func validateRequest(req Request) (int, error) {
	if !req.Side.Valid() {
		return 0, errors.NewValidationError("side", req.Side, "must be BUY or SELL")
	}
	if !req.Quote.Type.Valid() {
		return 0, errors.NewValidationError("option_type", req.Quote.Type, "must be CALL or PUT")
	}
	if req.Quote.LastPrice <= 0 {
		return 0, errors.NewValidationError("option_price", req.Quote.LastPrice, "must be positive")
	}
	if req.LimitPrice <= 0 {
		return 0, errors.NewValidationError("limit_price", req.LimitPrice, "must be positive")
	}
	g := req.Quote.Greeks
	if g.Delta == 0 && g.Gamma == 0 && g.Vega == 0 && g.IV == 0 {
		return 0, errors.ErrMissingGreeks
	}

	horizon := req.HorizonDays
	if !req.Quote.Expiry.IsZero() {
		daysToExpiry := int(time.Until(req.Quote.Expiry).Hours() / 24)
		if daysToExpiry <= 0 {
			return 0, errors.NewValidationError("days_to_expiry", daysToExpiry, "contract is expired")
		}
		if horizon <= 0 || horizon > daysToExpiry {
			horizon = daysToExpiry
		}
	}
	if horizon <= 0 {
		return 0, errors.NewValidationError("horizon_days", horizon, "must be positive")
	}

	// A sell limit below the current price (or a buy limit above it) would
	// be marketable immediately; that is a request error, not a prediction.
	if req.Side == models.OrderSideSell && req.LimitPrice < req.Quote.LastPrice {
		return 0, errors.NewValidationError("limit_price", req.LimitPrice, "sell limit below current price")
	}
	if req.Side == models.OrderSideBuy && req.LimitPrice > req.Quote.LastPrice {
		return 0, errors.NewValidationError("limit_price", req.LimitPrice, "buy limit above current price")
	}

	return horizon, nil
}
