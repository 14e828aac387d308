// Package summary tabulates how many tests fall below a fixed ladder of
// significance cutoffs.
package summary

import (
	"fmt"
	"io"
	"strings"

	"goqvalue/domain/fdr"
	"goqvalue/internal/profiling"
)

// Cutoffs are the thresholds reported in every summary
var Cutoffs = []float64{0.0001, 0.001, 0.01, 0.025, 0.05, 0.1, 1}

// Summary holds per-cutoff counts for a result
type Summary struct {
	NumTests       int       `json:"num_tests"`
	Pi0            float64   `json:"pi0"`
	PFDR           bool      `json:"pfdr"`
	FDRLevel       *float64  `json:"fdr_level,omitempty"`
	NumSignificant int       `json:"num_significant"`
	Cutoffs        []float64 `json:"cutoffs"`
	PValue         []int     `json:"pvalue"`
	QValue         []int     `json:"qvalue"`
	LFDR           []int     `json:"lfdr,omitempty"` // Absent when the result has no local FDR

	Profile *profiling.PValueProfile `json:"profile,omitempty"`
}

// New summarizes result
func New(result *fdr.Result) *Summary {
	params := result.Params()
	s := &Summary{
		NumTests:       result.Len(),
		Pi0:            result.Pi0(),
		PFDR:           params.PFDR,
		NumSignificant: result.NumSignificant(),
		Cutoffs:        append([]float64(nil), Cutoffs...),
		PValue:         countBelow(result.PValues()),
		QValue:         countBelow(result.QValues()),
	}
	if level, ok := result.FDRLevel(); ok {
		s.FDRLevel = &level
	}
	if lfdr := result.LFDR(); lfdr != nil {
		s.LFDR = countBelow(lfdr)
	}
	if profile, err := profiling.ProfilePValues(result.PValues()); err == nil {
		s.Profile = profile
	}
	return s
}

func countBelow(values []float64) []int {
	counts := make([]int, len(Cutoffs))
	for _, v := range values {
		for i, c := range Cutoffs {
			if v < c {
				counts[i]++
			}
		}
	}
	return counts
}

// Render writes the summary as a fixed-width table
func (s *Summary) Render(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Tests: %d\n", s.NumTests)
	fmt.Fprintf(&b, "pi0:   %.4f\n", s.Pi0)
	if s.PFDR {
		b.WriteString("Error rate: pFDR\n")
	}
	if s.FDRLevel != nil {
		fmt.Fprintf(&b, "Significant at FDR %g: %d\n", *s.FDRLevel, s.NumSignificant)
	}
	b.WriteString("\nCumulative number of significant calls:\n\n")

	fmt.Fprintf(&b, "%-10s", "")
	for _, c := range s.Cutoffs {
		fmt.Fprintf(&b, "%9s", fmt.Sprintf("<%g", c))
	}
	b.WriteString("\n")

	writeRow(&b, "p-value", s.PValue)
	writeRow(&b, "q-value", s.QValue)
	if s.LFDR != nil {
		writeRow(&b, "local FDR", s.LFDR)
	}

	if s.Profile != nil {
		writeProfile(&b, s.Profile)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRow(b *strings.Builder, label string, counts []int) {
	fmt.Fprintf(b, "%-10s", label)
	for _, n := range counts {
		fmt.Fprintf(b, "%9d", n)
	}
	b.WriteString("\n")
}

const histogramWidth = 40

func writeProfile(b *strings.Builder, p *profiling.PValueProfile) {
	b.WriteString("\nP-value distribution:\n\n")
	fmt.Fprintf(b, "mean %.4f  median %.4f  IQR [%.4f, %.4f]\n", p.Mean, p.Median, p.Q25, p.Q75)
	fmt.Fprintf(b, "uniformity chi2 %.2f (p = %.3g)\n\n", p.UniformityChi2, p.UniformityP)

	peak := 0
	for _, c := range p.Histogram {
		if c > peak {
			peak = c
		}
	}
	width := float64(len(p.Histogram))
	for i, c := range p.Histogram {
		bar := 0
		if peak > 0 {
			bar = c * histogramWidth / peak
		}
		fmt.Fprintf(b, "[%.2f, %.2f) %6d %s\n", float64(i)/width, float64(i+1)/width, c, strings.Repeat("#", bar))
	}
}
