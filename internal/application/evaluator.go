package application

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	descriptive "github.com/montanaflynn/stats"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
	"github.com/ahrav/gavel-rubric/internal/stats"
)

// Stages of an evaluation run, in execution order.
const (
	StageLoad        = "load"
	StageReliability = "reliability"
	StageAggregate   = "aggregate"
	StageAlign       = "align"
	StagePairedTest  = "paired_test"
	StageReport      = "report"
)

// SummaryOutput binds a summary format to the file it is written to.
type SummaryOutput struct {
	Path   string
	Writer ports.SummaryWriter
}

// PlotOutput binds a plot renderer to the file it is written to.
type PlotOutput struct {
	Path    string
	Plotter ports.DeltaPlotter
}

// Evaluator runs the rubric-versus-control comparison: it loads both
// conditions, measures inter-rater reliability, aggregates each prompt,
// pairs the prompts and runs the Wilcoxon signed-rank test.
//
// An Evaluator is safe for sequential reuse. Concurrent Run calls are safe
// when the configured outputs write to distinct paths.
type Evaluator struct {
	source     ports.RatingsSource
	aggregator ports.Aggregator
	metrics    ports.MetricsCollector
	observer   ports.StageObserver
	logger     zerolog.Logger
	catalog    []string
	summaries  map[domain.Mode][]SummaryOutput
	plots      []PlotOutput
	now        func() time.Time
	newID      func() string
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithMetrics sets the metrics collector.
func WithMetrics(m ports.MetricsCollector) EvaluatorOption {
	return func(e *Evaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithStageObserver sets the observer wrapped around every stage.
func WithStageObserver(o ports.StageObserver) EvaluatorOption {
	return func(e *Evaluator) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) EvaluatorOption {
	return func(e *Evaluator) { e.logger = l }
}

// WithPromptCatalog sets the prompt ids that are expected to be rated.
// Prompts missing from the control ratings are reported, not fatal.
func WithPromptCatalog(ids []string) EvaluatorOption {
	return func(e *Evaluator) { e.catalog = ids }
}

// WithSummaryOutput writes the summary with w to path in runs of mode.
func WithSummaryOutput(mode domain.Mode, path string, w ports.SummaryWriter) EvaluatorOption {
	return func(e *Evaluator) {
		e.summaries[mode] = append(e.summaries[mode], SummaryOutput{Path: path, Writer: w})
	}
}

// WithPlotOutput renders the paired differences with p to path in full runs.
func WithPlotOutput(path string, p ports.DeltaPlotter) EvaluatorOption {
	return func(e *Evaluator) {
		e.plots = append(e.plots, PlotOutput{Path: path, Plotter: p})
	}
}

// WithClock replaces the time source used to stamp summaries.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates an Evaluator reading from source and aggregating
// prompts with aggregator.
func NewEvaluator(source ports.RatingsSource, aggregator ports.Aggregator, opts ...EvaluatorOption) (*Evaluator, error) {
	vErr := domain.NewValidationError("Evaluator")
	if source == nil {
		vErr.AddError("ratings source is required")
	}
	if aggregator == nil {
		vErr.AddError("aggregator is required")
	}
	if vErr.HasErrors() {
		vErr.Err = domain.ErrEmptyValue
		return nil, vErr
	}

	e := &Evaluator{
		source:     source,
		aggregator: aggregator,
		metrics:    nopMetrics{},
		observer:   nopObserver{},
		logger:     zerolog.Nop(),
		summaries:  make(map[domain.Mode][]SummaryOutput),
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run performs one evaluation in mode and writes the outputs registered
// for it. The returned summary holds unrounded values.
func (e *Evaluator) Run(ctx context.Context, mode domain.Mode) (summary domain.Summary, err error) {
	if mode != domain.ModeFull && mode != domain.ModeStress {
		return domain.Summary{}, domain.WrapValidationError("Run", domain.ErrInvalidConfiguration,
			fmt.Sprintf("unknown mode %q", mode))
	}

	runID := e.newID()
	logger := e.logger.With().Str("run_id", runID).Str("mode", string(mode)).Logger()
	logger.Info().Msg("evaluation started")

	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			logger.Error().Err(err).Msg("evaluation failed")
		}
		e.metrics.RecordCounter("runs_total", 1, map[string]string{"mode": string(mode), "status": status})
	}()

	var control, rubric domain.ConditionRatings
	err = e.stage(ctx, StageLoad, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			control, err = e.load(gctx, domain.ConditionControl)
			return err
		})
		g.Go(func() error {
			var err error
			rubric, err = e.load(gctx, domain.ConditionRubric)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return domain.Summary{}, err
	}

	var alphaControl, alphaRubric float64
	err = e.stage(ctx, StageReliability, func(ctx context.Context) error {
		var g errgroup.Group
		g.Go(func() error {
			alphaControl = BuildReliabilityMatrix(control.Ratings).Alpha()
			return nil
		})
		g.Go(func() error {
			alphaRubric = BuildReliabilityMatrix(rubric.Ratings).Alpha()
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Float64("alpha.control", alphaControl),
			attribute.Float64("alpha.rubric", alphaRubric),
		)
		return nil
	})
	if err != nil {
		return domain.Summary{}, err
	}

	var perControl, perRubric map[string]float64
	err = e.stage(ctx, StageAggregate, func(context.Context) error {
		var err error
		if perControl, err = AggregatePerPrompt(control.Ratings, e.aggregator); err != nil {
			return fmt.Errorf("%s: %w", domain.ConditionControl, err)
		}
		if perRubric, err = AggregatePerPrompt(rubric.Ratings, e.aggregator); err != nil {
			return fmt.Errorf("%s: %w", domain.ConditionRubric, err)
		}
		return nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	e.checkCoverage(logger, perControl)

	var pairs domain.PairedScores
	err = e.stage(ctx, StageAlign, func(context.Context) error {
		var err error
		pairs, err = AlignPairs(perControl, perRubric)
		return err
	})
	if err != nil {
		return domain.Summary{}, err
	}

	var w stats.WilcoxonResult
	var rankBiserial float64
	err = e.stage(ctx, StagePairedTest, func(ctx context.Context) error {
		var err error
		if w, err = stats.WilcoxonSignedRank(pairs.Control, pairs.Rubric); err != nil {
			return err
		}
		rankBiserial = stats.RankBiserial(pairs.Control, pairs.Rubric)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("wilcoxon.n_effective", w.NEffective),
			attribute.Float64("wilcoxon.p_two_sided", w.PTwoSided),
			attribute.Float64("rank_biserial", rankBiserial),
		)
		return nil
	})
	if err != nil {
		return domain.Summary{}, err
	}

	summary = domain.Summary{
		RunID:         runID,
		Mode:          mode,
		Timestamp:     e.now().UTC(),
		NPrompts:      pairs.Len(),
		AlphaControl:  alphaControl,
		AlphaRubric:   alphaRubric,
		WilcoxonW:     w.W,
		WilcoxonZ:     w.Z,
		PTwoSided:     w.PTwoSided,
		EffectR:       w.R,
		NEffective:    w.NEffective,
		RankBiserial:  rankBiserial,
		MedianControl: math.NaN(),
		MedianRubric:  math.NaN(),
		MedianDelta:   math.NaN(),
	}
	if mode == domain.ModeFull {
		summary.MedianControl = median(pairs.Control)
		summary.MedianRubric = median(pairs.Rubric)
		summary.MedianDelta = median(pairs.Deltas())
	}
	e.recordStatistics(summary, pairs)

	err = e.stage(ctx, StageReport, func(context.Context) error {
		return e.writeOutputs(logger, mode, summary, pairs)
	})
	if err != nil {
		return domain.Summary{}, err
	}

	logger.Info().
		Int("n_prompts", summary.NPrompts).
		Float64("alpha_control", summary.AlphaControl).
		Float64("alpha_rubric", summary.AlphaRubric).
		Float64("p_two_sided", summary.PTwoSided).
		Float64("rank_biserial", summary.RankBiserial).
		Msg("evaluation completed")
	return summary, nil
}

// stage runs fn inside an observed stage. It returns early if ctx is done.
func (e *Evaluator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sctx, end := e.observer.Start(ctx, name)
	err := fn(sctx)
	end(err)
	if err != nil {
		return fmt.Errorf("%s stage: %w", name, err)
	}
	return nil
}

func (e *Evaluator) load(ctx context.Context, condition domain.Condition) (domain.ConditionRatings, error) {
	rs, err := e.source.Load(ctx, condition)
	if err != nil {
		return domain.ConditionRatings{}, fmt.Errorf("load %s ratings: %w", condition, err)
	}
	e.metrics.RecordCounter("ratings_loaded", float64(len(rs.Ratings)),
		map[string]string{"condition": condition.String()})
	e.logger.Debug().
		Str("condition", condition.String()).
		Str("source", rs.Source).
		Int("ratings", len(rs.Ratings)).
		Msg("ratings loaded")
	return rs, nil
}

// checkCoverage compares the prompt catalog with the prompts that have
// control ratings and reports both kinds of mismatch.
func (e *Evaluator) checkCoverage(logger zerolog.Logger, rated map[string]float64) {
	if len(e.catalog) == 0 {
		return
	}
	unrated := lo.Filter(e.catalog, func(id string, _ int) bool {
		_, ok := rated[id]
		return !ok
	})
	uncatalogued := SortIDs(lo.Without(lo.Keys(rated), e.catalog...))

	if len(unrated) > 0 {
		logger.Warn().Strs("prompts", unrated).Msg("catalog prompts without control ratings")
		e.metrics.RecordCounter("prompts_unrated", float64(len(unrated)), nil)
	}
	if len(uncatalogued) > 0 {
		logger.Warn().Strs("prompts", uncatalogued).Msg("rated prompts missing from catalog")
		e.metrics.RecordCounter("prompts_uncatalogued", float64(len(uncatalogued)), nil)
	}
}

func (e *Evaluator) recordStatistics(s domain.Summary, pairs domain.PairedScores) {
	e.metrics.RecordGauge("alpha", s.AlphaControl, map[string]string{"condition": domain.ConditionControl.String()})
	e.metrics.RecordGauge("alpha", s.AlphaRubric, map[string]string{"condition": domain.ConditionRubric.String()})
	e.metrics.RecordGauge("wilcoxon_W", s.WilcoxonW, nil)
	e.metrics.RecordGauge("wilcoxon_Z", s.WilcoxonZ, nil)
	e.metrics.RecordGauge("p_two_sided", s.PTwoSided, nil)
	e.metrics.RecordGauge("effect_r", s.EffectR, nil)
	e.metrics.RecordGauge("rank_biserial", s.RankBiserial, nil)
	e.metrics.RecordGauge("n_prompts", float64(s.NPrompts), nil)

	for i := range pairs.PromptIDs {
		e.metrics.RecordHistogram("prompt_score", pairs.Control[i], map[string]string{"condition": domain.ConditionControl.String()})
		e.metrics.RecordHistogram("prompt_score", pairs.Rubric[i], map[string]string{"condition": domain.ConditionRubric.String()})
		e.metrics.RecordHistogram("paired_difference", pairs.Rubric[i]-pairs.Control[i], nil)
	}
}

func (e *Evaluator) writeOutputs(logger zerolog.Logger, mode domain.Mode, s domain.Summary, pairs domain.PairedScores) error {
	for _, out := range e.summaries[mode] {
		err := writeFile(out.Path, "summary", func(w io.Writer) error { return out.Writer.Write(w, s) })
		if err != nil {
			return err
		}
		logger.Info().Str("path", out.Path).Msg("summary saved")
	}
	if mode != domain.ModeFull {
		return nil
	}
	for _, out := range e.plots {
		err := writeFile(out.Path, "plot", func(w io.Writer) error { return out.Plotter.Plot(w, pairs) })
		if err != nil {
			return err
		}
		logger.Info().Str("path", out.Path).Msg("plot saved")
	}
	return nil
}

// writeFile creates path, including missing parent directories, and fills
// it with write. Failures are reported as *ports.ReportError.
func writeFile(path, artifact string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ports.NewReportError(artifact, path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return ports.NewReportError(artifact, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ports.NewReportError(artifact, path, cerr)
		}
	}()

	if err := write(f); err != nil {
		return ports.NewReportError(artifact, path, err)
	}
	return nil
}

// median returns the median of vs, or NaN for an empty slice.
func median(vs []float64) float64 {
	m, err := descriptive.Median(vs)
	if err != nil {
		return math.NaN()
	}
	return m
}

// nopMetrics discards every measurement.
type nopMetrics struct{}

func (nopMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (nopMetrics) RecordCounter(string, float64, map[string]string)       {}
func (nopMetrics) RecordGauge(string, float64, map[string]string)         {}
func (nopMetrics) RecordHistogram(string, float64, map[string]string)     {}

// nopObserver observes nothing.
type nopObserver struct{}

func (nopObserver) Start(ctx context.Context, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}
