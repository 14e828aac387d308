package qvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAscendingOrder_StableOnTies(t *testing.T) {
	p := []float64{0.3, 0.1, 0.3, 0.2, 0.1}
	assert.Equal(t, []int{1, 4, 3, 0, 2}, AscendingOrder(p))
}

func TestMaxTieRanks(t *testing.T) {
	tests := []struct {
		name string
		p    []float64
		want []int
	}{
		{"distinct", []float64{0.04, 0.01, 0.5}, []int{2, 1, 3}},
		{"all tied", []float64{0.5, 0.5, 0.5}, []int{3, 3, 3}},
		{"mixed ties", []float64{0.3, 0.1, 0.3, 0.2, 0.1}, []int{5, 2, 5, 3, 2}},
		{"single", []float64{0.03}, []int{1}},
		{"zeros and ones", []float64{1, 0, 0, 1}, []int{4, 2, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := AscendingOrder(tt.p)
			assert.Equal(t, tt.want, MaxTieRanks(tt.p, u))
		})
	}
}

func TestAscendingOrder_DoesNotMutateInput(t *testing.T) {
	p := []float64{0.9, 0.1, 0.5}
	AscendingOrder(p)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, p)
}
