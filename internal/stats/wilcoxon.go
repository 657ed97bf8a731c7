package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

// ErrLengthMismatch is wrapped by the ValidationError returned when paired
// samples have different lengths.
var ErrLengthMismatch = errors.New("paired samples must have the same length")

// WilcoxonResult holds the outcome of a paired Wilcoxon signed-rank test.
type WilcoxonResult struct {
	// W is min(W+, W-), the conventional test statistic.
	W float64 `json:"W"`

	// Z is the continuity-corrected normal approximation of W.
	Z float64 `json:"Z"`

	// PTwoSided is the two-sided p-value, always within [0, 1].
	PTwoSided float64 `json:"p_two_sided"`

	// NEffective is the number of pairs with a non-zero difference.
	NEffective int `json:"n_effective"`

	// R is the effect size Z/sqrt(n). It is not clamped.
	R float64 `json:"r"`
}

// neutralWilcoxon is returned when no pair carries sign information.
var neutralWilcoxon = WilcoxonResult{W: 0, Z: 0, PTwoSided: 1.0, NEffective: 0, R: 0}

// WilcoxonSignedRank runs a two-sided paired Wilcoxon signed-rank test on
// the differences y[i] - x[i] using the large-sample normal approximation
// with tie correction and a continuity correction of 0.5.
//
// Zero differences are dropped before ranking. When none remain the neutral
// result (p = 1, everything else 0) is returned. When the tie-corrected
// variance is zero Z is 0 and p is 1.
//
// Returns a *domain.ValidationError wrapping ErrLengthMismatch if x and y
// differ in length.
func WilcoxonSignedRank(x, y []float64) (WilcoxonResult, error) {
	if len(x) != len(y) {
		return WilcoxonResult{}, domain.WrapValidationError("paired sample", ErrLengthMismatch,
			fmt.Sprintf("x has %d values, y has %d", len(x), len(y)))
	}

	sr := signedRanks(x, y)
	n := len(sr.absDiffs)
	if n == 0 {
		return neutralWilcoxon, nil
	}

	w := math.Min(sr.positive, sr.negative)

	nf := float64(n)
	t := TieCorrection(sr.absDiffs)
	mu := nf * (nf + 1) / 4.0
	sigma := math.Sqrt((nf * (nf + 1) * (2*nf + 1) / 24.0) * t)

	var z, p float64
	if sigma == 0 {
		z, p = 0, 1.0
	} else {
		z = (w - mu - 0.5) / sigma
		p = 2 * (1 - normalCDF(math.Abs(z)))
	}

	return WilcoxonResult{
		W:          w,
		Z:          z,
		PTwoSided:  p,
		NEffective: n,
		R:          z / math.Sqrt(nf),
	}, nil
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(z float64) float64 {
	return 0.5 * (1.0 + math.Erf(z/math.Sqrt2))
}

// signedRankSums carries the rank sums of the non-zero paired differences.
type signedRankSums struct {
	absDiffs []float64
	// positive is the sum of ranks of positive differences (R+).
	positive float64
	// negative is the sum of ranks of negative differences (R-), as a
	// non-negative number.
	negative float64
}

// signedRanks computes y - x, drops zero differences, ranks the remaining
// absolute differences and splits the rank sum by sign. Callers must ensure
// len(x) == len(y).
func signedRanks(x, y []float64) signedRankSums {
	diffs := make([]float64, 0, len(x))
	for i := range x {
		if d := y[i] - x[i]; d != 0 {
			diffs = append(diffs, d)
		}
	}

	abs := make([]float64, len(diffs))
	for i, d := range diffs {
		abs[i] = math.Abs(d)
	}

	out := signedRankSums{absDiffs: abs}
	for i, r := range Rankdata(abs) {
		if diffs[i] > 0 {
			out.positive += r
		} else {
			out.negative += r
		}
	}
	return out
}
