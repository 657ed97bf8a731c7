package stats

import "math"

// Missing returns the marker used for an absent rating in a reliability
// matrix.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v marks an absent rating.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// KrippendorffAlphaInterval computes Krippendorff's alpha for interval data
// from an items x raters matrix. Absent ratings are marked with Missing().
// Rows may be ragged; cells beyond a row's length count as missing.
//
// Observed disagreement pools, over every item with at least two ratings,
// the squared differences of all ordered pairs of that item's ratings and
// divides by Σ n_i(n_i - 1). Expected disagreement does the same over all
// ratings in the matrix regardless of item. Both are computed pairwise, so
// results match the textbook definition rather than a variance shortcut.
//
// Returns:
//   - NaN when the matrix holds no ratings
//   - 1 when expected and observed disagreement are both zero
//   - NaN when expected disagreement is zero but observed is not
//   - 1 - Do/De otherwise; the value may be negative
func KrippendorffAlphaInterval(matrix [][]float64) float64 {
	values := make([]float64, 0, len(matrix))
	var doNum, doDen float64

	row := make([]float64, 0)
	for _, cells := range matrix {
		row = row[:0]
		for _, v := range cells {
			if !IsMissing(v) {
				row = append(row, v)
			}
		}
		values = append(values, row...)

		if ni := len(row); ni > 1 {
			doNum += pairwiseSquaredSum(row)
			doDen += float64(ni * (ni - 1))
		}
	}

	if len(values) == 0 {
		return math.NaN()
	}

	var do float64
	if doDen > 0 {
		do = doNum / doDen
	}

	var de float64
	if m := len(values); m > 1 {
		de = pairwiseSquaredSum(values) / float64(m*(m-1))
	}

	if de == 0 {
		if do == 0 {
			return 1.0
		}
		return math.NaN()
	}
	return 1.0 - do/de
}

// pairwiseSquaredSum returns Σ_i Σ_j (v_i - v_j)² over all ordered pairs,
// including the zero-valued diagonal.
func pairwiseSquaredSum(vs []float64) float64 {
	var sum float64
	for _, a := range vs {
		for _, b := range vs {
			d := a - b
			sum += d * d
		}
	}
	return sum
}
