package world

import "math"

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Distance is the euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Direction is the angle from (x1, y1) toward (x2, y2).
func Direction(x1, y1, x2, y2 float64) float64 {
	return math.Atan2(y2-y1, x2-x1)
}

// AngleDistance returns the absolute difference between two angles in [0, π].
func AngleDistance(a, b float64) float64 {
	d := math.Abs(b - a)
	d = math.Mod(d, math.Pi*2)
	if d > math.Pi {
		d = math.Pi*2 - d
	}
	return d
}

// FixTo rounds value to the given number of decimals.
func FixTo(value float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(value*scale) / scale
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
