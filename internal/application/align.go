package application

import (
	"slices"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

// maxSuggestions caps the "did you mean" candidates of an AlignmentError.
const maxSuggestions = 3

// AlignPairs pairs the per-prompt control and rubric scores. Pairs follow
// the control prompt order given by SortIDs. A control prompt without a
// rubric score yields a *domain.AlignmentError; rubric prompts absent from
// control are ignored.
func AlignPairs(control, rubric map[string]float64) (domain.PairedScores, error) {
	ids := make([]string, 0, len(control))
	for id := range control {
		ids = append(ids, id)
	}
	SortIDs(ids)

	pairs := domain.PairedScores{
		PromptIDs: ids,
		Control:   make([]float64, len(ids)),
		Rubric:    make([]float64, len(ids)),
	}
	for i, id := range ids {
		r, ok := rubric[id]
		if !ok {
			return domain.PairedScores{}, &domain.AlignmentError{
				PromptID:    id,
				Condition:   domain.ConditionRubric,
				Suggestions: suggestIDs(id, rubric),
			}
		}
		pairs.Control[i] = control[id]
		pairs.Rubric[i] = r
	}
	return pairs, nil
}

// suggestIDs returns up to maxSuggestions keys of candidates that look like
// id. Keys equal to id under Unicode case folding come first, then keys
// within a small edit distance, closest first.
func suggestIDs(id string, candidates map[string]float64) []string {
	fold := cases.Fold()
	folded := fold.String(id)
	limit := max(2, len(id)/3)

	type scored struct {
		id   string
		dist int
	}
	var matches []scored
	for c := range candidates {
		if fold.String(c) == folded {
			matches = append(matches, scored{id: c, dist: 0})
			continue
		}
		if d := levenshtein.ComputeDistance(id, c); d <= limit {
			matches = append(matches, scored{id: c, dist: d})
		}
	}

	slices.SortFunc(matches, func(a, b scored) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return compareIDs(a.id, b.id)
	})

	out := make([]string, 0, min(len(matches), maxSuggestions))
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		out = append(out, matches[i].id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func compareIDs(a, b string) int {
	if isDigits(a) && isDigits(b) {
		return compareNumeric(a, b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
