package utils

import "math"

// Clamp01 clamps x into [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// LogSaturate squashes a non-negative value into [0, 1) with logarithmic
// compression. The result is 0.5 when x equals pivot and approaches 1 as x
// grows, so a single outlier cannot collapse the scale for everything else.
// Returns 0 for x <= 0 or pivot <= 0.
func LogSaturate(x, pivot float64) float64 {
	if x <= 0 || pivot <= 0 {
		return 0
	}
	lx := math.Log1p(x)
	return lx / (lx + math.Log1p(pivot))
}
