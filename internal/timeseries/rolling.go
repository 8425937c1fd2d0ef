package timeseries

import "math"

// CenteredRollingMean computes a centered rolling mean with minimum period 1.
// The window at index i spans [i-(w-1-w/2), i+w/2], clipped to the series
// bounds, which matches how the charts' centered moving averages are labeled.
func CenteredRollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo, hi := centeredBounds(i, window, len(values))
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// CenteredRollingStd computes a centered rolling sample standard deviation
// with minimum period 1. Windows with a single observation have no spread to
// estimate and yield 0, keeping every output defined.
func CenteredRollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo, hi := centeredBounds(i, window, len(values))
		n := hi - lo + 1
		if n < 2 {
			out[i] = 0
			continue
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		mean := sum / float64(n)
		var ss float64
		for j := lo; j <= hi; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

func centeredBounds(i, window, length int) (int, int) {
	lo := i - (window - 1 - window/2)
	hi := i + window/2
	if lo < 0 {
		lo = 0
	}
	if hi > length-1 {
		hi = length - 1
	}
	return lo, hi
}
