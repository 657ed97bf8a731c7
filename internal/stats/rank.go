// Package stats implements the paired non-parametric statistics and the
// inter-rater reliability coefficient used to compare prompting conditions.
//
// Every function in this package is a pure function of its slice arguments:
// inputs are never mutated, nothing is cached, and no I/O is performed.
// Concurrent callers need no coordination.
//
// Statistical degeneracy (no usable pairs, zero variance, no expected
// disagreement) is not an error. Each operation documents the neutral or
// NaN value it returns in that case so batch evaluations keep running.
package stats

import (
	"cmp"
	"slices"
)

// Rankdata assigns 1-based ranks to values, giving tied values the mean of
// the ranks their tie group spans ("average" ranking).
//
// The result has the same length and order as values. For any input of
// length n the ranks sum to exactly n(n+1)/2.
//
// Example:
//
//	Rankdata([]float64{10, 20, 10, 30}) // [1.5, 3, 1.5, 4]
func Rankdata(values []float64) []float64 {
	n := len(values)
	ranks := make([]float64, n)
	if n == 0 {
		return ranks
	}

	order := sortedOrder(values)
	for start := 0; start < n; {
		end := tieGroupEnd(values, order, start)
		// Sorted positions start..end-1 would hold ranks start+1..end.
		avg := float64(start+1+end) / 2
		for _, idx := range order[start:end] {
			ranks[idx] = avg
		}
		start = end
	}
	return ranks
}

// TieCorrection returns the Wilcoxon variance correction factor
// 1 - Σ(t³ - t)/(n³ - n), where t ranges over the sizes of the groups of
// equal values.
//
// It returns 1 when there are no ties or fewer than two values, and 0 when
// every value is equal. It never divides by zero.
func TieCorrection(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 1.0
	}

	order := sortedOrder(values)
	var tieSum float64
	for start := 0; start < n; {
		end := tieGroupEnd(values, order, start)
		t := float64(end - start)
		tieSum += t*t*t - t
		start = end
	}

	nf := float64(n)
	denom := nf*nf*nf - nf
	if denom == 0 {
		return 1.0
	}
	return 1.0 - tieSum/denom
}

// sortedOrder returns the indices of values in ascending value order.
// Equal values keep their original relative order.
func sortedOrder(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})
	return order
}

// tieGroupEnd returns the exclusive end of the tie group that begins at
// sorted position start.
func tieGroupEnd(values []float64, order []int, start int) int {
	end := start + 1
	for end < len(order) && values[order[end]] == values[order[start]] {
		end++
	}
	return end
}
