package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

// Plot geometry.
const (
	PlotWidth  = 6 * vg.Inch
	PlotHeight = 4 * vg.Inch
	PlotDPI    = 150
)

var _ ports.DeltaPlotter = (*PNGDeltaPlotter)(nil)

// PNGDeltaPlotter draws one point per prompt at (index, rubric - control)
// with a horizontal reference line at zero, rendered as PNG.
type PNGDeltaPlotter struct {
	aggregation string
}

// NewPNGDeltaPlotter returns a plotter whose y-axis label names the
// aggregation used to build the per-prompt scores.
func NewPNGDeltaPlotter(aggregation string) *PNGDeltaPlotter {
	if aggregation == "" {
		aggregation = "median"
	}
	return &PNGDeltaPlotter{aggregation: aggregation}
}

// Plot implements ports.DeltaPlotter.
func (d *PNGDeltaPlotter) Plot(w io.Writer, pairs domain.PairedScores) error {
	deltas := pairs.Deltas()

	p := plot.New()
	p.Title.Text = "Per-prompt paired differences"
	p.X.Label.Text = "Prompt index"
	p.Y.Label.Text = fmt.Sprintf("Rubric − Control (%s rating)", d.aggregation)

	pts := make(plotter.XYs, len(deltas))
	minY, maxY := 0.0, 0.0
	for i, v := range deltas {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	points, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	points.GlyphStyle.Radius = vg.Points(3)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 96}
	zero.Width = vg.Points(1)
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(zero, points)
	p.X.Min, p.X.Max = 0, float64(len(deltas)+1)
	p.Y.Min, p.Y.Max = minY-0.5, maxY+0.5

	c := vgimg.NewWith(vgimg.UseWH(PlotWidth, PlotHeight), vgimg.UseDPI(PlotDPI))
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
