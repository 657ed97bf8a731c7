package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKrippendorffAlphaInterval(t *testing.T) {
	nan := Missing()

	tests := []struct {
		name     string
		matrix   [][]float64
		expected float64
	}{
		{
			name:     "constant rows agree perfectly",
			matrix:   [][]float64{{1, 1, 1}, {2, 2, 2}},
			expected: 1.0,
		},
		{
			name: "missing ratings are skipped",
			// Do = (2 + 0 + 2) / (2 + 2 + 2); De = 120 / 30.
			matrix:   [][]float64{{1, nan, 2}, {3, 3, nan}, {nan, 4, 5}},
			expected: 1 - (4.0/6.0)/4.0,
		},
		{
			name: "systematic disagreement goes negative",
			// Do = 64 / 4 = 16; De = 128 / 12.
			matrix:   [][]float64{{1, 5}, {5, 1}},
			expected: -0.5,
		},
		{
			name: "ragged rows treat absent cells as missing",
			// Only the first row has a pair: Do = 2/2; De = 12/6.
			matrix:   [][]float64{{1, 2}, {3}},
			expected: 0.5,
		},
		{
			name:     "single rating has no disagreement at all",
			matrix:   [][]float64{{3, nan}},
			expected: 1.0,
		},
		{
			name:     "constant data everywhere",
			matrix:   [][]float64{{2, 2}, {2, 2}},
			expected: 1.0,
		},
		{
			name:     "items with a single rating contribute only to expected disagreement",
			matrix:   [][]float64{{1, nan}, {nan, 3}},
			expected: 1.0, // Do has no qualifying item and is 0
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KrippendorffAlphaInterval(tt.matrix)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestKrippendorffAlphaInterval_PerfectAgreementAboveThreshold(t *testing.T) {
	alpha := KrippendorffAlphaInterval([][]float64{{1, 1, 1}, {2, 2, 2}})
	assert.Greater(t, alpha, 0.95)
}

func TestKrippendorffAlphaInterval_NearIdenticalRows(t *testing.T) {
	alpha := KrippendorffAlphaInterval([][]float64{
		{1, 1, 1.01},
		{4, 4, 4},
		{7, 6.99, 7},
	})
	assert.Greater(t, alpha, 0.95)
	assert.Less(t, alpha, 1.0)
}

func TestKrippendorffAlphaInterval_Undefined(t *testing.T) {
	nan := Missing()

	tests := []struct {
		name   string
		matrix [][]float64
	}{
		{name: "nil matrix", matrix: nil},
		{name: "rows without cells", matrix: [][]float64{{}, {}}},
		{name: "every cell missing", matrix: [][]float64{{nan, nan}, {nan, nan}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsNaN(KrippendorffAlphaInterval(tt.matrix)))
		})
	}
}

func TestKrippendorffAlphaInterval_DoesNotMutateInput(t *testing.T) {
	nan := Missing()
	matrix := [][]float64{{1, nan, 2}, {3, 3, nan}}

	_ = KrippendorffAlphaInterval(matrix)

	assert.Equal(t, 1.0, matrix[0][0])
	assert.True(t, IsMissing(matrix[0][1]))
	assert.Equal(t, 2.0, matrix[0][2])
	assert.True(t, IsMissing(matrix[1][2]))
}
