package report

import (
	"io"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

var _ ports.SummaryWriter = (*ConsoleTable)(nil)

// ConsoleTable writes a human-readable summary for terminals, with numbers
// formatted for the configured language.
type ConsoleTable struct {
	tag language.Tag
}

// NewConsoleTable returns a ConsoleTable formatting numbers for tag.
func NewConsoleTable(tag language.Tag) *ConsoleTable { return &ConsoleTable{tag: tag} }

type consoleRow struct {
	label  string
	value  float64
	digits int
}

// Write implements ports.SummaryWriter.
func (c *ConsoleTable) Write(w io.Writer, s domain.Summary) error {
	p := message.NewPrinter(c.tag)
	r := s.Rounded()

	rows := []consoleRow{
		{"alpha (control)", r.AlphaControl, 3},
		{"alpha (rubric)", r.AlphaRubric, 3},
		{"Wilcoxon W", r.WilcoxonW, 3},
		{"Wilcoxon Z", r.WilcoxonZ, 3},
		{"p (two-sided)", r.PTwoSided, 4},
		{"effect size r", r.EffectR, 3},
		{"rank-biserial", r.RankBiserial, 3},
	}
	if s.Mode == domain.ModeFull {
		rows = append(rows,
			consoleRow{"median (control)", s.MedianControl, 2},
			consoleRow{"median (rubric)", s.MedianRubric, 2},
			consoleRow{"median delta", s.MedianDelta, 2},
		)
	}

	if _, err := p.Fprintf(w, "Rubric vs control (%s run %s)\n", s.Mode, s.RunID); err != nil {
		return err
	}
	if _, err := p.Fprintf(w, "  %-18s %d (%d non-tied)\n", "prompts", s.NPrompts, s.NEffective); err != nil {
		return err
	}
	for _, row := range rows {
		var err error
		if math.IsNaN(row.value) {
			_, err = p.Fprintf(w, "  %-18s %s\n", row.label, "n/a")
		} else {
			_, err = p.Fprintf(w, "  %-18s %.*f\n", row.label, row.digits, row.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
