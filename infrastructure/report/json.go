package report

import (
	"io"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

var _ ports.SummaryWriter = (*JSONWriter)(nil)

// JSONWriter writes a summary as an indented JSON document. Values keep
// full precision; undefined statistics become null.
type JSONWriter struct{}

// NewJSONWriter returns a JSONWriter.
func NewJSONWriter() *JSONWriter { return &JSONWriter{} }

type summaryDocument struct {
	RunID         string    `json:"run_id"`
	Mode          string    `json:"mode"`
	Timestamp     time.Time `json:"timestamp"`
	NPrompts      int       `json:"n_prompts"`
	AlphaControl  *float64  `json:"alpha_control"`
	AlphaRubric   *float64  `json:"alpha_rubric"`
	WilcoxonW     *float64  `json:"wilcoxon_W"`
	WilcoxonZ     *float64  `json:"wilcoxon_Z"`
	PTwoSided     *float64  `json:"p_two_sided"`
	EffectR       *float64  `json:"effect_r"`
	NEffective    int       `json:"n_effective"`
	RankBiserial  *float64  `json:"rank_biserial"`
	MedianControl *float64  `json:"median_control,omitempty"`
	MedianRubric  *float64  `json:"median_rubric,omitempty"`
	MedianDelta   *float64  `json:"median_delta,omitempty"`
}

// finite returns a pointer to v, or nil when v is NaN or infinite.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Write implements ports.SummaryWriter.
func (JSONWriter) Write(w io.Writer, s domain.Summary) error {
	doc := summaryDocument{
		RunID:         s.RunID,
		Mode:          string(s.Mode),
		Timestamp:     s.Timestamp,
		NPrompts:      s.NPrompts,
		AlphaControl:  finite(s.AlphaControl),
		AlphaRubric:   finite(s.AlphaRubric),
		WilcoxonW:     finite(s.WilcoxonW),
		WilcoxonZ:     finite(s.WilcoxonZ),
		PTwoSided:     finite(s.PTwoSided),
		EffectR:       finite(s.EffectR),
		NEffective:    s.NEffective,
		RankBiserial:  finite(s.RankBiserial),
		MedianControl: finite(s.MedianControl),
		MedianRubric:  finite(s.MedianRubric),
		MedianDelta:   finite(s.MedianDelta),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
