// Package utils provides shared formatting helpers.
package utils

import (
	"fmt"
	"math"
)

// FormatPercent formats a probability in [0,1] as a percentage.
func FormatPercent(p float64) string {
	if math.IsNaN(p) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", p*100)
}

// FormatPrice formats a price with two decimals and a dollar sign.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// FormatDays formats a fractional day count.
func FormatDays(days float64) string {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return "-"
	}
	return fmt.Sprintf("%.1fd", days)
}
