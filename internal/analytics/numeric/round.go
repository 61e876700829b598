// Package numeric holds the rounding rules applied to every reported figure.
package numeric

import "math"

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 { return Round(v, 2) }

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Percent returns part/total*100, or 0 when total is 0.
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

//Personal.AI order the ending
