package empirical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goqvalue/internal/errors"
)

func TestPooled(t *testing.T) {
	stat0 := []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}

	p, err := Pooled([]float64{0, 2, 3.2, 5, 9}, stat0)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{1, 0.7, 0.4, 0.1, 0.1}, p, 1e-12)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5}, stat0)
}

func TestPooled_UnsortedNullWithTies(t *testing.T) {
	p, err := Pooled([]float64{2}, []float64{3, 2, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, p[0], 1e-12)
}

func TestUnpooled(t *testing.T) {
	stat := []float64{1, 10, 0}
	stat0 := [][]float64{
		{0, 2, 3, 4},
		{1, 2},
		{-1, 0, 1},
	}

	p, err := Unpooled(stat, stat0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.75, 0.5, 2.0 / 3}, p, 1e-12)
}

func TestEmpirical_Errors(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		run  func() error
	}{
		{"pooled no stats", func() error { _, err := Pooled(nil, []float64{1}); return err }},
		{"pooled no null", func() error { _, err := Pooled([]float64{1}, nil); return err }},
		{"pooled NaN stat", func() error { _, err := Pooled([]float64{nan}, []float64{1}); return err }},
		{"pooled NaN null", func() error { _, err := Pooled([]float64{1}, []float64{nan}); return err }},
		{"unpooled row count", func() error { _, err := Unpooled([]float64{1, 2}, [][]float64{{1}}); return err }},
		{"unpooled empty row", func() error { _, err := Unpooled([]float64{1}, [][]float64{{}}); return err }},
		{"unpooled NaN null", func() error { _, err := Unpooled([]float64{1}, [][]float64{{nan}}); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.IsRangeError(tt.run()))
		})
	}
}
