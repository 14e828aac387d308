package pi0

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
)

// uniformGrid returns the midpoints (i-0.5)/n, i = 1..n
func uniformGrid(n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = (float64(i) + 0.5) / float64(n)
	}
	return p
}

// halfSignal returns n tiny p-values followed by an n-point uniform grid,
// which gives pi0(lambda) = 0.5 on every default grid point
func halfSignal(n int) []float64 {
	p := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		p = append(p, 0.0005)
	}
	return append(p, uniformGrid(n)...)
}

func newTestEstimator() *Estimator {
	return NewEstimator(internal.NopLogger())
}

func TestEstimatePi0_Smoother(t *testing.T) {
	est, err := newTestEstimator().EstimatePi0(halfSignal(1000), fdr.DefaultEstimatorConfig())
	require.NoError(t, err)

	assert.InDelta(t, 0.5, est.Pi0, 1e-9)
	require.Len(t, est.Lambda, 19)
	require.Len(t, est.Pi0Lambda, 19)
	require.Len(t, est.Pi0Smooth, 19)
	for i := range est.Pi0Lambda {
		assert.InDelta(t, 0.5, est.Pi0Lambda[i], 1e-9)
		assert.InDelta(t, 0.5, est.Pi0Smooth[i], 1e-9)
	}
}

func TestEstimatePi0_SmootherLogScale(t *testing.T) {
	cfg := fdr.DefaultEstimatorConfig()
	cfg.SmoothLogPi0 = fdr.Bool(true)

	est, err := newTestEstimator().EstimatePi0(halfSignal(1000), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, est.Pi0, 1e-9)
}

func TestEstimatePi0_AllNullCapsAtOne(t *testing.T) {
	for _, method := range []fdr.Pi0Method{fdr.Pi0Smoother, fdr.Pi0Bootstrap} {
		cfg := fdr.DefaultEstimatorConfig()
		cfg.Pi0Method = method

		est, err := newTestEstimator().EstimatePi0(uniformGrid(1000), cfg)
		require.NoError(t, err, "method=%s", method)
		assert.InDelta(t, 1.0, est.Pi0, 1e-9, "method=%s", method)
		assert.LessOrEqual(t, est.Pi0, 1.0)
	}
}

func TestEstimatePi0_Bootstrap(t *testing.T) {
	cfg := fdr.DefaultEstimatorConfig()
	cfg.Pi0Method = fdr.Pi0Bootstrap

	est, err := newTestEstimator().EstimatePi0(halfSignal(1000), cfg)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, est.Pi0, 1e-9)
	assert.Nil(t, est.Pi0Smooth)
	assert.Len(t, est.Pi0Lambda, 19)
}

func TestBootstrapStrategy_PicksMinimumMSE(t *testing.T) {
	// Two points are far above the 10% quantile so their squared bias dominates
	g := Grid{
		M:         100,
		Lambda:    []float64{0.2, 0.4, 0.6, 0.8},
		Exceed:    []int{80, 60, 40, 20},
		Pi0Lambda: []float64{1.0, 1.0, 0.6, 0.6},
	}

	est, err := BootstrapStrategy{}.Estimate(g, fdr.DefaultEstimatorConfig())
	require.NoError(t, err)
	assert.Equal(t, 0.6, est.Pi0)
}

func TestEstimatePi0_SingleLambda(t *testing.T) {
	cfg := fdr.DefaultEstimatorConfig()
	cfg.Lambda = []float64{0.5}

	est, err := newTestEstimator().EstimatePi0(halfSignal(1000), cfg)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, est.Pi0, 1e-9)
	assert.Equal(t, []float64{0.5}, est.Lambda)
	assert.Len(t, est.Pi0Lambda, 1)
	assert.Nil(t, est.Pi0Smooth)
}

func TestEstimatePi0_SortsLambda(t *testing.T) {
	cfg := fdr.DefaultEstimatorConfig()
	cfg.Lambda = []float64{0.8, 0.2, 0.6, 0.4}

	est, err := newTestEstimator().EstimatePi0(uniformGrid(200), cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.4, 0.6, 0.8}, est.Lambda)
}

func TestEstimatePi0_Errors(t *testing.T) {
	tests := []struct {
		name      string
		p         []float64
		mutate    func(*fdr.EstimatorConfig)
		wantRange bool
	}{
		{"lambda of length two", uniformGrid(100), func(c *fdr.EstimatorConfig) { c.Lambda = []float64{0.2, 0.5} }, false},
		{"lambda at one", uniformGrid(100), func(c *fdr.EstimatorConfig) { c.Lambda = []float64{0.2, 0.4, 0.6, 1} }, false},
		{"negative lambda", uniformGrid(100), func(c *fdr.EstimatorConfig) { c.Lambda = []float64{-0.1, 0.4, 0.6, 0.8} }, false},
		{"duplicate lambda", uniformGrid(100), func(c *fdr.EstimatorConfig) { c.Lambda = []float64{0.2, 0.4, 0.4, 0.8} }, false},
		{"max p below lambda range", []float64{0.01, 0.2, 0.5}, func(c *fdr.EstimatorConfig) {}, false},
		{"unknown method", uniformGrid(100), func(c *fdr.EstimatorConfig) { c.Pi0Method = "spline" }, false},
		{"df above grid size", uniformGrid(100), func(c *fdr.EstimatorConfig) { c.SmoothDF = 40 }, false},
		{"p out of range", []float64{0.5, 1.2}, func(c *fdr.EstimatorConfig) {}, true},
		{"empty", nil, func(c *fdr.EstimatorConfig) {}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fdr.DefaultEstimatorConfig()
			tt.mutate(&cfg)

			_, err := newTestEstimator().EstimatePi0(tt.p, cfg)
			require.Error(t, err)
			if tt.wantRange {
				assert.True(t, errors.IsRangeError(err), "got %v", err)
			} else {
				assert.True(t, errors.IsEstimationError(err), "got %v", err)
			}
		})
	}
}

type fixedStrategy struct{ pi0 float64 }

func (s fixedStrategy) Estimate(g Grid, _ fdr.EstimatorConfig) (*fdr.Pi0Estimate, error) {
	return &fdr.Pi0Estimate{Pi0: s.pi0, Pi0Lambda: g.Pi0Lambda, Lambda: g.Lambda}, nil
}

func TestEstimator_RegisterStrategy(t *testing.T) {
	e := newTestEstimator()
	e.Register("fixed", fixedStrategy{pi0: 0.42})

	cfg := fdr.DefaultEstimatorConfig()
	cfg.Pi0Method = "fixed"
	est, err := e.EstimatePi0(uniformGrid(100), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.42, est.Pi0)

	e.Register("zero", fixedStrategy{pi0: 0})
	cfg.Pi0Method = "zero"
	_, err = e.EstimatePi0(uniformGrid(100), cfg)
	assert.True(t, errors.IsEstimationError(err))
}

func TestNewGrid(t *testing.T) {
	g := NewGrid([]float64{0.1, 0.3, 0.5, 0.7, 0.9}, []float64{0, 0.5})
	assert.Equal(t, []int{5, 3}, g.Exceed)
	assert.InDeltaSlice(t, []float64{1, 1.2}, g.Pi0Lambda, 1e-12)
}
