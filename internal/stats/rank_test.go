package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankdata(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected []float64
	}{
		{
			name:     "empty input returns empty ranks",
			values:   []float64{},
			expected: []float64{},
		},
		{
			name:     "single element gets rank one",
			values:   []float64{42},
			expected: []float64{1},
		},
		{
			name:     "distinct values get sequential ranks",
			values:   []float64{3, 1, 2},
			expected: []float64{3, 1, 2},
		},
		{
			name:     "ties receive the average of their ranks",
			values:   []float64{10, 20, 10, 30},
			expected: []float64{1.5, 3, 1.5, 4},
		},
		{
			name:     "all equal values share the middle rank",
			values:   []float64{7, 7, 7, 7},
			expected: []float64{2.5, 2.5, 2.5, 2.5},
		},
		{
			name:     "three way tie below a larger value",
			values:   []float64{1, 1, 2, 1}, // ranks 1,2,3 averaged to 2, then 4
			expected: []float64{2, 2, 4, 2},
		},
		{
			name:     "negative values rank below positive ones",
			values:   []float64{-1.5, 0, 2.25, -1.5},
			expected: []float64{1.5, 3, 4, 1.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Rankdata(tt.values))
		})
	}
}

func TestRankdata_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2, 1}
	original := append([]float64(nil), values...)

	_ = Rankdata(values)

	assert.Equal(t, original, values)
}

func TestRankdata_PermutationOfTiesGivesSameRanks(t *testing.T) {
	a := Rankdata([]float64{5, 2, 5, 9})
	b := Rankdata([]float64{9, 5, 2, 5})

	assert.Equal(t, []float64{2.5, 1, 2.5, 4}, a)
	assert.Equal(t, []float64{4, 2.5, 1, 2.5}, b)
}

func TestTieCorrection(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{name: "empty input", values: nil, expected: 1.0},
		{name: "single value", values: []float64{4}, expected: 1.0},
		{name: "all distinct", values: []float64{1, 2, 3, 4}, expected: 1.0},
		{
			name:     "one tie group of three in four values",
			values:   []float64{1, 1, 2, 1}, // 1 - (27-3)/(64-4)
			expected: 0.6,
		},
		{
			name:     "two tie groups of two",
			values:   []float64{1, 1, 2, 2}, // 1 - 2*(8-2)/(64-4)
			expected: 0.8,
		},
		{name: "all equal collapses to zero", values: []float64{2, 2, 2}, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TieCorrection(tt.values), 1e-12)
		})
	}
}
