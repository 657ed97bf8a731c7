package stats

import "math"

// RankBiserial returns the matched-pairs rank-biserial correlation
// (R+ - R-) / (n(n+1)/2) computed from the signed ranks of y[i] - x[i].
//
// Zero differences are dropped first. The result lies in [-1, 1]; it is 0
// when no non-zero difference remains. Paired samples of different lengths
// have no defined correlation and yield NaN.
func RankBiserial(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}

	sr := signedRanks(x, y)
	n := float64(len(sr.absDiffs))
	if n == 0 {
		return 0.0
	}

	denom := n * (n + 1) / 2.0
	if denom <= 0 {
		return 0.0
	}
	return (sr.positive - sr.negative) / denom
}
