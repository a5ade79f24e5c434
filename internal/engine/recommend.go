package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"optionfill/internal/models"
)

// Alternative is one suggested limit price with its estimated outcome.
type Alternative struct {
	Label           string
	LimitPrice      float64
	FillProbability float64
	ExpectedDays    float64
}

// MarshalJSON renders an undefined expected-days value (NaN when the
// shifted limit never fills) as null.
func (a Alternative) MarshalJSON() ([]byte, error) {
	type alias Alternative
	return json.Marshal(struct {
		alias
		ExpectedDays *float64
	}{alias(a), jsonFloat(a.ExpectedDays)})
}

// Recommendation is the human-actionable output block.
type Recommendation struct {
	Guidance     []string
	Alternatives []Alternative
}

// alternativeScenarios shifts the limit by a fraction of the distance
// between the current price and the requested limit. 0.75 lands close to
// the current price (fast fill); -0.50 overshoots the requested limit
// (patient, higher reward).
var alternativeScenarios = []struct {
	label    string
	fraction float64
}{
	{"fast fill", 0.75},
	{"balanced", 0.50},
	{"as specified", 0.00},
	{"patient", -0.50},
}

// Recommend produces guidance text and alternative limits. Alternatives
// are scored by re-reducing the same path matrix against shifted limits,
// so they cost no additional simulation. The text is a deterministic
// function of the inputs.
func Recommend(matrix *PathMatrix, stats FillStatistics, confidence ConfidenceMetrics, limit, currentPrice float64, side models.OrderSide) Recommendation {
	rec := Recommendation{
		Guidance:     guidanceText(stats, confidence, matrix.Days),
		Alternatives: make([]Alternative, 0, len(alternativeScenarios)),
	}

	distance := limit - currentPrice
	for _, sc := range alternativeScenarios {
		altLimit := limit - sc.fraction*distance
		if altLimit <= 0 {
			continue
		}

		alt := Alternative{Label: sc.label, LimitPrice: altLimit}
		if altStats, err := DetectFills(matrix, altLimit, side); err == nil {
			alt.FillProbability = altStats.FillProbability
			alt.ExpectedDays = altStats.ExpectedDays
		}
		rec.Alternatives = append(rec.Alternatives, alt)
	}

	return rec
}

func guidanceText(stats FillStatistics, confidence ConfidenceMetrics, horizonDays int) []string {
	var guidance []string

	p := stats.FillProbability
	switch {
	case p >= 0.8:
		guidance = append(guidance, fmt.Sprintf(
			"High probability of fill (%.0f%%). The limit price is realistic for this contract.", p*100))
	case p >= 0.5:
		guidance = append(guidance, fmt.Sprintf(
			"Moderate probability of fill (%.0f%%). The order will likely fill, but patience may be required.", p*100))
	default:
		guidance = append(guidance, fmt.Sprintf(
			"Low probability of fill (%.0f%%). Consider adjusting the limit price closer to the current price.", p*100))
	}

	if stats.AnyFilled && !math.IsNaN(stats.ExpectedDays) {
		guidance = append(guidance, fmt.Sprintf(
			"Among filled paths, the average time to fill is %.1f days (median %.1f) within a %d-day horizon.",
			stats.ExpectedDays, stats.MedianDays, horizonDays))
	} else {
		guidance = append(guidance,
			"No simulated path reached the limit price within the horizon.")
	}

	if confidence.Level == ConfidenceLow {
		guidance = append(guidance,
			"Confidence in this estimate is low; treat the probability as indicative rather than precise.")
	}

	return guidance
}
