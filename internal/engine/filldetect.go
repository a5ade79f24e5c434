package engine

import (
	"encoding/json"
	"math"
	"sort"

	"optionfill/internal/errors"
	"optionfill/internal/models"
)

// PercentileDays holds days-to-fill percentiles among filled paths.
type PercentileDays struct {
	P25 float64
	P50 float64
	P75 float64
	P90 float64
}

// FillStatistics is the aggregate reduction of a path matrix against a
// limit order. Daily and cumulative tables are indexed by day, where day 0
// is the starting price (an immediate fill for at-the-threshold limits).
type FillStatistics struct {
	FillProbability  float64
	TouchProbability float64
	AnyFilled        bool
	ExpectedDays     float64 // mean first-fill day among filled paths
	MedianDays       float64
	Percentiles      PercentileDays
	DailyProb        []float64
	CumulativeProb   []float64
	FilledPaths      int
	TotalPaths       int
}

// DetectFills scans every path for the first day the fill condition holds:
// price >= limit for sell orders, price <= limit for buy orders. Touch and
// fill probability are computed by the same scan; both are exposed because
// richer execution models (dwell time, queue position) would split them.
func DetectFills(matrix *PathMatrix, limit float64, side models.OrderSide) (FillStatistics, error) {
	if !side.Valid() {
		return FillStatistics{}, errors.NewValidationError("side", side, "must be BUY or SELL")
	}
	if len(matrix.Prices) == 0 {
		return FillStatistics{}, errors.NewSimulationError("detect", "empty path matrix", nil)
	}

	total := len(matrix.Prices)
	days := matrix.Days

	fillDays := make([]int, 0, total)
	daily := make([]float64, days+1)

	for _, row := range matrix.Prices {
		day := firstFillDay(row, limit, side)
		if day >= 0 {
			fillDays = append(fillDays, day)
			daily[day]++
		}
	}

	filled := len(fillDays)
	prob := float64(filled) / float64(total)

	cumulative := make([]float64, days+1)
	running := 0.0
	for d := 0; d <= days; d++ {
		daily[d] /= float64(total)
		running += daily[d]
		cumulative[d] = running
	}

	nan := math.NaN()
	stats := FillStatistics{
		FillProbability:  prob,
		TouchProbability: prob,
		AnyFilled:        filled > 0,
		ExpectedDays:     nan,
		MedianDays:       nan,
		Percentiles:      PercentileDays{P25: nan, P50: nan, P75: nan, P90: nan},
		DailyProb:        daily,
		CumulativeProb:   cumulative,
		FilledPaths:      filled,
		TotalPaths:       total,
	}

	if filled > 0 {
		sort.Ints(fillDays)

		var sum int
		for _, d := range fillDays {
			sum += d
		}
		stats.ExpectedDays = float64(sum) / float64(filled)
		stats.MedianDays = percentileInt(fillDays, 50)
		stats.Percentiles = PercentileDays{
			P25: percentileInt(fillDays, 25),
			P50: percentileInt(fillDays, 50),
			P75: percentileInt(fillDays, 75),
			P90: percentileInt(fillDays, 90),
		}
	}

	return stats, nil
}

// MarshalJSON renders day statistics that are undefined (NaN when no path
// fills) as null; encoding/json rejects raw NaN.
func (s FillStatistics) MarshalJSON() ([]byte, error) {
	type alias FillStatistics
	return json.Marshal(struct {
		alias
		ExpectedDays *float64
		MedianDays   *float64
	}{alias(s), jsonFloat(s.ExpectedDays), jsonFloat(s.MedianDays)})
}

// MarshalJSON renders undefined percentiles as null.
func (p PercentileDays) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		P25 *float64
		P50 *float64
		P75 *float64
		P90 *float64
	}{jsonFloat(p.P25), jsonFloat(p.P50), jsonFloat(p.P75), jsonFloat(p.P90)})
}

// jsonFloat maps a non-finite day statistic to null for JSON output.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// firstFillDay returns the index of the first day the condition holds, or
// -1 if the path never fills.
func firstFillDay(row []float64, limit float64, side models.OrderSide) int {
	if side == models.OrderSideSell {
		for d, price := range row {
			if price >= limit {
				return d
			}
		}
		return -1
	}
	for d, price := range row {
		if price <= limit {
			return d
		}
	}
	return -1
}

// percentileInt computes the pth percentile of sorted integer days with
// linear interpolation.
func percentileInt(sorted []int, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return float64(sorted[0])
	}

	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return float64(sorted[lower])
	}

	weight := index - float64(lower)
	return float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight
}
