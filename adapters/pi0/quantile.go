package pi0

import (
	"math"
	"sort"
)

// Quantile returns the prob-quantile of xs with linear interpolation between
// order statistics at h = (n-1)*prob (the "type 7" definition)
func Quantile(xs []float64, prob float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	h := float64(n-1) * prob
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
