package qvalue

import (
	"fmt"
	"math"

	"goqvalue/domain/fdr"
)

// instabilityTolerance is the relative gap between the closed form
// 1-(1-p)^m and its expm1/log1p evaluation above which a test is reported
const instabilityTolerance = 1e-6

// QValues converts p-values into q-values given pi0.
//
// Raw estimates are pi0*m*p/v (v the max-tie rank), or with pfdr
// pi0*m*p/(v*(1-(1-p)^m)). A single backward sweep over the ascending order
// then caps the largest order statistic at 1 and carries a running minimum
// down, so that q[u[k]] <= q[u[k+1]] for every k.
func QValues(p []float64, pi0 float64, pfdr bool) ([]float64, []fdr.Warning) {
	m := len(p)
	q := make([]float64, m)
	if m == 0 {
		return q, nil
	}

	u := AscendingOrder(p)
	v := MaxTieRanks(p, u)
	raw, unstable := rawEstimates(p, v, pi0, pfdr)

	running := math.Min(raw[u[m-1]], 1)
	q[u[m-1]] = running
	for k := m - 2; k >= 0; k-- {
		running = math.Min(raw[u[k]], running)
		q[u[k]] = running
	}

	var warnings []fdr.Warning
	if unstable > 0 {
		warnings = append(warnings, fdr.Warning{
			Code:    fdr.WarningNumericInstability,
			Message: fmt.Sprintf("pFDR denominator 1-(1-p)^m evaluated in stabilized form for %d of %d tests", unstable, m),
			Count:   unstable,
		})
	}
	return q, warnings
}

func rawEstimates(p []float64, v []int, pi0 float64, pfdr bool) ([]float64, int) {
	m := len(p)
	mf := float64(m)
	raw := make([]float64, m)
	unstable := 0

	for i, pi := range p {
		rank := float64(v[i])
		if !pfdr {
			raw[i] = pi0 * mf * pi / rank
			continue
		}
		if pi == 0 {
			// m*p/(1-(1-p)^m) -> 1 as p -> 0
			raw[i] = pi0 / rank
			continue
		}
		atLeastOne, stabilized := probAtLeastOne(pi, mf)
		if stabilized {
			unstable++
		}
		raw[i] = pi0 * mf * pi / (rank * atLeastOne)
	}
	return raw, unstable
}

// probAtLeastOne returns 1-(1-p)^m evaluated as -expm1(m*log1p(-p)), and
// whether the naive subtraction would have lost precision.
func probAtLeastOne(p, m float64) (float64, bool) {
	stable := -math.Expm1(m * math.Log1p(-p))
	naive := 1 - math.Pow(1-p, m)
	if naive <= 0 {
		return stable, true
	}
	return stable, math.Abs(naive-stable) > instabilityTolerance*stable
}
