package lfdr

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	gridPoints = 512
	gridCut    = 3 // Grid extends this many bandwidths past the data
)

// KernelDensity is a Gaussian kernel density estimate tabulated on a regular grid
type KernelDensity struct {
	Bandwidth float64
	Grid      []float64
	Density   []float64
}

// NewKernelDensity estimates the density of x with bandwidth adjust*nrd0(x).
// Observations are linearly binned onto the grid before convolution.
func NewKernelDensity(x []float64, adjust float64) *KernelDensity {
	bw := adjust * BandwidthNRD0(x)

	lo, hi := x[0], x[0]
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo -= gridCut * bw
	hi += gridCut * bw

	delta := (hi - lo) / float64(gridPoints-1)
	grid := make([]float64, gridPoints)
	for i := range grid {
		grid[i] = lo + float64(i)*delta
	}

	weights := make([]float64, gridPoints)
	share := 1 / float64(len(x))
	for _, v := range x {
		pos := (v - lo) / delta
		j := int(math.Floor(pos))
		if j >= gridPoints-1 {
			weights[gridPoints-1] += share
			continue
		}
		if j < 0 {
			weights[0] += share
			continue
		}
		frac := pos - float64(j)
		weights[j] += share * (1 - frac)
		weights[j+1] += share * frac
	}

	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	offsets := make([]float64, gridPoints)
	for k := range offsets {
		offsets[k] = kernel.Prob(float64(k) * delta)
	}

	density := make([]float64, gridPoints)
	for j := range density {
		total := 0.0
		for k, w := range weights {
			if w == 0 {
				continue
			}
			d := j - k
			if d < 0 {
				d = -d
			}
			total += w * offsets[d]
		}
		density[j] = total
	}

	return &KernelDensity{Bandwidth: bw, Grid: grid, Density: density}
}

// At interpolates the density linearly; outside the grid it is zero
func (k *KernelDensity) At(v float64) float64 {
	n := len(k.Grid)
	if v < k.Grid[0] || v > k.Grid[n-1] {
		return 0
	}
	delta := k.Grid[1] - k.Grid[0]
	pos := (v - k.Grid[0]) / delta
	j := int(math.Floor(pos))
	if j >= n-1 {
		return k.Density[n-1]
	}
	frac := pos - float64(j)
	return k.Density[j]*(1-frac) + k.Density[j+1]*frac
}

// BandwidthNRD0 is Silverman's rule of thumb:
// 0.9 * min(sd, IQR/1.34) * n^(-1/5), falling back to sd, |x[0]|, then 1
// when the spread is zero.
func BandwidthNRD0(x []float64) float64 {
	n := float64(len(x))
	lo := 0.0
	if len(x) >= 2 {
		sd, err := stats.StandardDeviationSample(x)
		if err != nil || math.IsNaN(sd) {
			sd = 0
		}
		lo = sd
		if iqr, err := stats.InterQuartileRange(x); err == nil && iqr/1.34 < lo {
			lo = iqr / 1.34
		}
		if lo == 0 {
			lo = sd
		}
	}
	if lo == 0 {
		lo = math.Abs(x[0])
	}
	if lo == 0 {
		lo = 1
	}
	return 0.9 * lo * math.Pow(n, -0.2)
}
