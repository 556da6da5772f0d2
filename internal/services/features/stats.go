package features

import "math"

// Mean of xs, requiring minCount observations.
func Mean(xs []float64, minCount int) (float64, bool) {
	if len(xs) == 0 || len(xs) < minCount {
		return 0, false
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), true
}

// SampleStd is the n-1 standard deviation; needs at least 2 observations.
func SampleStd(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	mean, _ := Mean(xs, 1)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}

// MinMax returns the extremes of xs.
func MinMax(xs []float64) (lo, hi float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi, true
}

// Slope fits ys against 0..n-1 by ordinary least squares.
func Slope(ys []float64) (float64, bool) {
	n := len(ys)
	if n < 2 {
		return 0, false
	}
	xMean := float64(n-1) / 2
	yMean, _ := Mean(ys, 1)
	var sxy, sxx float64
	for i, y := range ys {
		dx := float64(i) - xMean
		sxy += dx * (y - yMean)
		sxx += dx * dx
	}
	return sxy / sxx, true
}
