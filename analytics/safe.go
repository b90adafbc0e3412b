package analytics

import "math"

// safeNum sanitizes a value at the result boundary: NaN and Infinity become
// 0, everything else is rounded to the given number of decimals. The result
// record must never carry a non-finite number.
func safeNum(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	pow := math.Pow10(decimals)
	return math.Round(v*pow) / pow
}
