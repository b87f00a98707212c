package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// round2 rounds money and percentages half away from zero to two decimals.
// Non-finite input collapses to 0 so it never reaches a JSON encoder.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func clamp(value, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, value))
}

// percentOf returns part/total*100 rounded to two decimals, or 0 for an empty total.
func percentOf(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

// PercentChange returns the period-over-period change in percent. It returns
// nil when there is nothing to compare against.
func PercentChange(current, previous float64) *float64 {
	if previous == 0 || math.IsNaN(previous) || math.IsInf(previous, 0) {
		return nil
	}
	if math.IsNaN(current) || math.IsInf(current, 0) {
		return nil
	}
	change := round2((current - previous) / previous * 100)
	return &change
}
