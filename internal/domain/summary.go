package domain

import (
	"math"
	"time"
)

// Mode selects which outputs an evaluation run produces.
type Mode string

const (
	// ModeFull produces the complete report: summary table with medians,
	// JSON summary and the paired-difference plot.
	ModeFull Mode = "full"

	// ModeStress produces only the compact stress summary table.
	ModeStress Mode = "stress"
)

// Summary is the outcome of one evaluation run comparing the rubric
// condition against the control condition.
//
// Values are stored unrounded. Reliability coefficients are NaN when
// undefined; writers decide how to present that.
type Summary struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Mode is the run mode that produced this summary.
	Mode Mode `json:"mode"`

	// Timestamp records when the summary was created.
	Timestamp time.Time `json:"timestamp"`

	// NPrompts is the number of paired prompts.
	NPrompts int `json:"n_prompts"`

	// AlphaControl and AlphaRubric are Krippendorff's alpha (interval) per condition.
	AlphaControl float64 `json:"alpha_control"`
	AlphaRubric  float64 `json:"alpha_rubric"`

	// Wilcoxon signed-rank results on the per-prompt aggregates.
	WilcoxonW  float64 `json:"wilcoxon_W"`
	WilcoxonZ  float64 `json:"wilcoxon_Z"`
	PTwoSided  float64 `json:"p_two_sided"`
	EffectR    float64 `json:"effect_r"`
	NEffective int     `json:"n_effective"`

	// RankBiserial is the matched-pairs rank-biserial correlation.
	RankBiserial float64 `json:"rank_biserial"`

	// Medians of the per-prompt aggregates and of their differences.
	MedianControl float64 `json:"median_control"`
	MedianRubric  float64 `json:"median_rubric"`
	MedianDelta   float64 `json:"median_delta"`
}

// Rounded returns a copy with reporting precision applied: three decimals
// for reliability, W, Z and effect sizes, four for the p-value. Medians and
// NaN values are left untouched.
func (s Summary) Rounded() Summary {
	out := s
	out.AlphaControl = Round(s.AlphaControl, 3)
	out.AlphaRubric = Round(s.AlphaRubric, 3)
	out.WilcoxonW = Round(s.WilcoxonW, 3)
	out.WilcoxonZ = Round(s.WilcoxonZ, 3)
	out.PTwoSided = Round(s.PTwoSided, 4)
	out.EffectR = Round(s.EffectR, 3)
	out.RankBiserial = Round(s.RankBiserial, 3)
	return out
}

// Round rounds v to the given number of decimal places, half away from zero.
// NaN and infinities are returned unchanged.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
