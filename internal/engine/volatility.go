package engine

import (
	"math"

	"optionfill/internal/config"
)

// VolMethod identifies how the effective volatility was produced.
type VolMethod string

const (
	// VolMethodBlended is the static IV/HV weighted blend.
	VolMethodBlended VolMethod = "blended"
	// VolMethodDynamic is the regime-aware reweighted blend.
	VolMethodDynamic VolMethod = "dynamic"
	// VolMethodIVOnly is the fallback when history is unavailable.
	VolMethodIVOnly VolMethod = "iv_only"
)

// VolatilityResult is the output of the mixer, including the weights that
// were actually applied so callers can tell real blends from fallbacks.
type VolatilityResult struct {
	Implied      float64
	Historical   float64
	Effective    float64
	IVWeight     float64
	HVWeight     float64
	Method       VolMethod
	UsedFallback bool
}

// VolatilityMixer combines implied and historical volatility into one
// effective volatility scalar.
type VolatilityMixer struct {
	lookback int
	ivWeight float64
	hvWeight float64
	dynamic  bool
}

// NewVolatilityMixer creates a mixer from configuration.
func NewVolatilityMixer(cfg config.VolatilityConfig) *VolatilityMixer {
	return &VolatilityMixer{
		lookback: cfg.LookbackDays,
		ivWeight: cfg.IVWeight,
		hvWeight: cfg.HVWeight,
		dynamic:  cfg.DynamicBlend,
	}
}

// Mix blends implied volatility with historical volatility computed from
// the given close series. With fewer closes than the lookback window the
// mixer falls back to IV only; the fallback is tagged, never silent.
func (m *VolatilityMixer) Mix(impliedVol float64, closes []float64) VolatilityResult {
	if len(closes) < m.lookback {
		return VolatilityResult{
			Implied:      impliedVol,
			Effective:    clampVolatility(impliedVol),
			IVWeight:     1.0,
			Method:       VolMethodIVOnly,
			UsedFallback: true,
		}
	}

	window := closes[len(closes)-m.lookback:]
	hv := HistoricalVolatility(window)
	if hv <= 0 {
		// Flat history gives no usable signal.
		return VolatilityResult{
			Implied:      impliedVol,
			Historical:   hv,
			Effective:    clampVolatility(impliedVol),
			IVWeight:     1.0,
			Method:       VolMethodIVOnly,
			UsedFallback: true,
		}
	}

	ivW, hvW := m.ivWeight, m.hvWeight
	method := VolMethodBlended

	if m.dynamic {
		// Mean-reversion-aware reweighting on the IV/HV ratio: rich IV
		// leans on HV, cheap IV leans on IV.
		ratio := impliedVol / hv
		switch {
		case ratio > 1.5:
			ivW, hvW = 0.4, 0.6
			method = VolMethodDynamic
		case ratio < 0.7:
			ivW, hvW = 0.7, 0.3
			method = VolMethodDynamic
		}
	}

	effective := ivW*impliedVol + hvW*hv
	return VolatilityResult{
		Implied:    impliedVol,
		Historical: hv,
		Effective:  clampVolatility(effective),
		IVWeight:   ivW,
		HVWeight:   hvW,
		Method:     method,
	}
}

// HistoricalVolatility returns the annualized standard deviation of log
// returns of the given close series (oldest first).
func HistoricalVolatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}
