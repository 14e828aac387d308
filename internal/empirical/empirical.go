// Package empirical turns observed statistics and null statistics
// (permutation or bootstrap draws) into p-values for the q-value engine.
package empirical

import (
	"math"
	"sort"

	"goqvalue/internal/errors"
)

// Pooled computes p_i as the fraction of the pooled null statistics that are
// at least stat_i, floored at 1/len(stat0)
func Pooled(stat, stat0 []float64) ([]float64, error) {
	if len(stat) == 0 {
		return nil, errors.RangeError("no observed statistics")
	}
	if len(stat0) == 0 {
		return nil, errors.RangeError("no null statistics")
	}
	if i := firstNaN(stat); i >= 0 {
		return nil, errors.RangeError("observed statistic %d is NaN", i)
	}
	if i := firstNaN(stat0); i >= 0 {
		return nil, errors.RangeError("null statistic %d is NaN", i)
	}

	null := append([]float64(nil), stat0...)
	sort.Float64s(null)

	n := float64(len(null))
	p := make([]float64, len(stat))
	for i, s := range stat {
		// null[k:] are the draws >= s
		k := sort.SearchFloat64s(null, s)
		p[i] = math.Max(float64(len(null)-k)/n, 1/n)
	}
	return p, nil
}

// Unpooled computes p_i against its own null row stat0[i]
func Unpooled(stat []float64, stat0 [][]float64) ([]float64, error) {
	if len(stat) == 0 {
		return nil, errors.RangeError("no observed statistics")
	}
	if len(stat0) != len(stat) {
		return nil, errors.RangeError("need one null row per test: %d rows for %d statistics", len(stat0), len(stat))
	}
	if i := firstNaN(stat); i >= 0 {
		return nil, errors.RangeError("observed statistic %d is NaN", i)
	}

	p := make([]float64, len(stat))
	for i, row := range stat0 {
		if len(row) == 0 {
			return nil, errors.RangeError("null row %d is empty", i)
		}
		extreme := 0
		for j, v := range row {
			if math.IsNaN(v) {
				return nil, errors.RangeError("null statistic %d of row %d is NaN", j, i)
			}
			if v >= stat[i] {
				extreme++
			}
		}
		b := float64(len(row))
		p[i] = math.Max(float64(extreme)/b, 1/b)
	}
	return p, nil
}

func firstNaN(xs []float64) int {
	for i, v := range xs {
		if math.IsNaN(v) {
			return i
		}
	}
	return -1
}
