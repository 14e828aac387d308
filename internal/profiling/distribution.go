package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// HistogramBins is the number of equal-width bins over [0, 1]
const HistogramBins = 20

// PValueProfile describes the shape of a p-value distribution. Under the
// global null it is flat; a spike near 0 indicates signal, and a bump near 1
// usually means one-sided tests or a misspecified null.
type PValueProfile struct {
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Q25       float64 `json:"q25"`
	Q75       float64 `json:"q75"`
	Histogram []int   `json:"histogram"`

	// Chi-squared goodness of fit of the histogram against Uniform(0, 1)
	UniformityChi2 float64 `json:"uniformity_chi2"`
	UniformityP    float64 `json:"uniformity_p"`

	// Mass in the upper half relative to a flat histogram; values well
	// above 1 flag a conservative null
	UpperHalfRatio float64 `json:"upper_half_ratio"`
}

// ProfilePValues computes summary statistics and a histogram for p
func ProfilePValues(p []float64) (*PValueProfile, error) {
	mean, err := stats.Mean(p)
	if err != nil {
		return nil, err
	}

	median, err := stats.Median(p)
	if err != nil {
		return nil, err
	}

	// Quartiles for the box summary
	q25, err := stats.Percentile(p, 25)
	if err != nil {
		return nil, err
	}

	q75, err := stats.Percentile(p, 75)
	if err != nil {
		return nil, err
	}

	hist := histogram(p)
	chi2 := uniformityStatistic(hist, len(p))
	chiDist := distuv.ChiSquared{K: HistogramBins - 1}

	upper := 0
	for _, c := range hist[HistogramBins/2:] {
		upper += c
	}

	return &PValueProfile{
		N:              len(p),
		Mean:           mean,
		Median:         median,
		Q25:            q25,
		Q75:            q75,
		Histogram:      hist,
		UniformityChi2: chi2,
		UniformityP:    chiDist.Survival(chi2),
		UpperHalfRatio: 2 * float64(upper) / float64(len(p)),
	}, nil
}

// histogram counts p into equal bins; p == 1 falls in the last bin
func histogram(p []float64) []int {
	counts := make([]int, HistogramBins)
	for _, v := range p {
		bin := int(math.Floor(v * HistogramBins))
		if bin >= HistogramBins {
			bin = HistogramBins - 1
		}
		if bin < 0 {
			bin = 0
		}
		counts[bin]++
	}
	return counts
}

// uniformityStatistic is Pearson's chi-squared against equal expected counts
func uniformityStatistic(hist []int, n int) float64 {
	expected := float64(n) / float64(len(hist))
	chi2 := 0.0
	for _, c := range hist {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	return chi2
}
