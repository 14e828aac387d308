package profiling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evenGrid(n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = (float64(i) + 0.5) / float64(n)
	}
	return p
}

func TestProfilePValues_Uniform(t *testing.T) {
	profile, err := ProfilePValues(evenGrid(1000))
	require.NoError(t, err)

	assert.Equal(t, 1000, profile.N)
	assert.InDelta(t, 0.5, profile.Mean, 1e-12)
	assert.InDelta(t, 0.5, profile.Median, 1e-9)
	require.Len(t, profile.Histogram, HistogramBins)
	for _, c := range profile.Histogram {
		assert.Equal(t, 50, c)
	}
	assert.InDelta(t, 0, profile.UniformityChi2, 1e-12)
	assert.InDelta(t, 1, profile.UniformityP, 1e-12)
	assert.InDelta(t, 1, profile.UpperHalfRatio, 1e-12)
}

func TestProfilePValues_SignalSpike(t *testing.T) {
	p := evenGrid(800)
	for i := 0; i < 200; i++ {
		p = append(p, 0.0001*float64(i+1))
	}

	profile, err := ProfilePValues(p)
	require.NoError(t, err)

	assert.Equal(t, 240, profile.Histogram[0])
	assert.Less(t, profile.UniformityP, 1e-6)
	assert.Less(t, profile.UpperHalfRatio, 1.0)
}

func TestHistogram_EdgeValues(t *testing.T) {
	hist := histogram([]float64{0, 0.05, 1})
	assert.Equal(t, 1, hist[0])
	assert.Equal(t, 1, hist[1])
	assert.Equal(t, 1, hist[HistogramBins-1])
}

func TestProfilePValues_Empty(t *testing.T) {
	_, err := ProfilePValues(nil)
	assert.Error(t, err)
}
