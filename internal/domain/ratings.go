package domain

// Condition identifies the prompting condition a rating was collected under.
type Condition string

// Supported prompting conditions.
const (
	// ConditionControl is the baseline prompting condition.
	ConditionControl Condition = "control"

	// ConditionRubric is the rubric prompting condition under test.
	ConditionRubric Condition = "rubric"
)

// String returns the string representation of the condition.
func (c Condition) String() string { return string(c) }

// Rating is a single human rating: one rater's score for one prompt's output.
type Rating struct {
	// PromptID identifies the rated item.
	PromptID string `json:"prompt_id"`

	// RaterID identifies the human rater.
	RaterID string `json:"rater_id"`

	// Value is the rating on the study's interval scale (e.g. a 1-7 Likert score).
	Value float64 `json:"rating"`
}

// ConditionRatings holds every rating collected under one condition
// together with where it was loaded from.
type ConditionRatings struct {
	// Condition is the prompting condition these ratings belong to.
	Condition Condition `json:"condition"`

	// Source describes the origin of the ratings, typically a file path.
	Source string `json:"source"`

	// Ratings is the long-format rating table.
	Ratings []Rating `json:"ratings"`
}

// PairedScores holds one aggregated score per prompt for both conditions,
// ordered identically. Control[i] and Rubric[i] both belong to PromptIDs[i].
type PairedScores struct {
	PromptIDs []string  `json:"prompt_ids"`
	Control   []float64 `json:"control"`
	Rubric    []float64 `json:"rubric"`
}

// Len returns the number of paired prompts.
func (p PairedScores) Len() int { return len(p.PromptIDs) }

// Deltas returns rubric minus control for every prompt.
func (p PairedScores) Deltas() []float64 {
	n := min(len(p.Control), len(p.Rubric))
	deltas := make([]float64, n)
	for i := range n {
		deltas[i] = p.Rubric[i] - p.Control[i]
	}
	return deltas
}
