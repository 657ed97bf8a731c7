package application

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
	"github.com/ahrav/gavel-rubric/internal/stats"
)

// ReliabilityMatrix is the items-by-raters layout of one condition's
// ratings. Values[i][j] is the rating rater RaterIDs[j] gave item
// ItemIDs[i], or stats.Missing() when that rater did not rate the item.
type ReliabilityMatrix struct {
	ItemIDs  []string
	RaterIDs []string
	Values   [][]float64
}

// BuildReliabilityMatrix arranges long-format ratings into an items by
// raters matrix. Items and raters are ordered with SortIDs. When the same
// rater rated the same item more than once the last rating wins.
func BuildReliabilityMatrix(ratings []domain.Rating) ReliabilityMatrix {
	items := SortIDs(lo.Uniq(lo.Map(ratings, func(r domain.Rating, _ int) string { return r.PromptID })))
	raters := SortIDs(lo.Uniq(lo.Map(ratings, func(r domain.Rating, _ int) string { return r.RaterID })))

	itemIdx := indexOf(items)
	raterIdx := indexOf(raters)

	values := make([][]float64, len(items))
	for i := range values {
		row := make([]float64, len(raters))
		for j := range row {
			row[j] = stats.Missing()
		}
		values[i] = row
	}
	for _, r := range ratings {
		values[itemIdx[r.PromptID]][raterIdx[r.RaterID]] = r.Value
	}

	return ReliabilityMatrix{ItemIDs: items, RaterIDs: raters, Values: values}
}

// Alpha returns Krippendorff's alpha for interval data over the matrix.
func (m ReliabilityMatrix) Alpha() float64 {
	return stats.KrippendorffAlphaInterval(m.Values)
}

// AggregatePerPrompt groups ratings by prompt and reduces each group with
// agg. Every rating takes part, including repeated ratings by one rater.
func AggregatePerPrompt(ratings []domain.Rating, agg ports.Aggregator) (map[string]float64, error) {
	groups := lo.GroupBy(ratings, func(r domain.Rating) string { return r.PromptID })

	out := make(map[string]float64, len(groups))
	for _, id := range SortIDs(lo.Keys(groups)) {
		values := lo.Map(groups[id], func(r domain.Rating, _ int) float64 { return r.Value })
		score, err := agg.Aggregate(values)
		if err != nil {
			return nil, fmt.Errorf("aggregate prompt %s with %s: %w", id, agg.Name(), err)
		}
		out[id] = score
	}
	return out, nil
}

// SortIDs returns ids sorted in place. When every id is made only of
// decimal digits they are ordered numerically, otherwise lexically.
func SortIDs(ids []string) []string {
	if len(ids) > 0 && lo.EveryBy(ids, isDigits) {
		slices.SortFunc(ids, compareNumeric)
		return ids
	}
	slices.Sort(ids)
	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// compareNumeric orders digit strings by value without parsing, so ids of
// any length compare correctly. Equal values fall back to lexical order.
func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		return len(ta) - len(tb)
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func indexOf(ids []string) map[string]int {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	return idx
}
