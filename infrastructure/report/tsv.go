// Package report renders evaluation summaries and paired-difference plots.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

// Summary table columns in output order.
var (
	// StressColumns are written by stress runs.
	StressColumns = []string{
		"n_prompts",
		"alpha_control",
		"alpha_rubric",
		"wilcoxon_W",
		"wilcoxon_Z",
		"p_two_sided",
		"effect_r",
		"rank_biserial",
	}

	// FullColumns are written by full runs.
	FullColumns = append(append([]string{}, StressColumns...),
		"median_control",
		"median_rubric",
		"median_delta",
	)
)

var _ ports.SummaryWriter = (*TSVWriter)(nil)

// TSVWriter writes a summary as a tab-separated table: one header row and
// one data row. Reporting precision is applied and undefined values are
// written as empty cells.
type TSVWriter struct {
	columns []string
}

// NewSummaryTSV returns the writer of the full summary table.
func NewSummaryTSV() *TSVWriter { return &TSVWriter{columns: FullColumns} }

// NewStressTSV returns the writer of the stress summary table.
func NewStressTSV() *TSVWriter { return &TSVWriter{columns: StressColumns} }

// Columns returns the header of the table.
func (t *TSVWriter) Columns() []string { return t.columns }

// Write implements ports.SummaryWriter.
func (t *TSVWriter) Write(w io.Writer, s domain.Summary) error {
	cells := summaryCells(s.Rounded())

	row := make([]string, len(t.columns))
	for i, c := range t.columns {
		v, ok := cells[c]
		if !ok {
			return fmt.Errorf("unknown summary column %q", c)
		}
		row[i] = v
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func summaryCells(s domain.Summary) map[string]string {
	return map[string]string{
		"n_prompts":      strconv.Itoa(s.NPrompts),
		"alpha_control":  FormatFloat(s.AlphaControl),
		"alpha_rubric":   FormatFloat(s.AlphaRubric),
		"wilcoxon_W":     FormatFloat(s.WilcoxonW),
		"wilcoxon_Z":     FormatFloat(s.WilcoxonZ),
		"p_two_sided":    FormatFloat(s.PTwoSided),
		"effect_r":       FormatFloat(s.EffectR),
		"rank_biserial":  FormatFloat(s.RankBiserial),
		"median_control": FormatFloat(s.MedianControl),
		"median_rubric":  FormatFloat(s.MedianRubric),
		"median_delta":   FormatFloat(s.MedianDelta),
	}
}

// FormatFloat renders v the way analysis tools print a float cell: the
// shortest representation that round-trips, always with a decimal point
// or exponent, scientific notation for very small or very large
// magnitudes, and an empty string for NaN.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
