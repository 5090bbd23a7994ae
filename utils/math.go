package utils

import "math"

// RoundFloat rounds a float64 to the specified number of decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// ProgressPercent renders a badge progress value/target pair as a percentage
// capped at 100. A zero target reads as 0 rather than dividing by it.
func ProgressPercent(value, target int64) float64 {
	if target <= 0 {
		return 0
	}
	if value < 0 {
		value = 0
	}
	pct := float64(value) / float64(target) * 100
	if pct > 100 {
		pct = 100
	}
	return RoundFloat(pct, 1)
}
