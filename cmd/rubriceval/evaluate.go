package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/ahrav/gavel-rubric/infrastructure/middleware"
	"github.com/ahrav/gavel-rubric/infrastructure/ratings"
	"github.com/ahrav/gavel-rubric/infrastructure/report"
	"github.com/ahrav/gavel-rubric/internal/application"
	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

// EvaluateOptions holds flags shared by the evaluate and stress commands.
type EvaluateOptions struct {
	*RootOptions
	ControlPath     string
	RubricPath      string
	PromptsPath     string
	OutDir          string
	Aggregation     string
	Sheet           string
	NoPlot          bool
	NoJSON          bool
	MetricsTextfile string
	Quiet           bool
}

// NewEvaluateCommand creates the evaluate command, which writes the full
// report: summary table, JSON summary and paired-difference plot.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the full rubric evaluation",
		Long: `Run the full rubric evaluation.

Writes the summary table (with per-condition medians), a JSON summary and
the paired-difference plot to the output directory.

Example:
  rubriceval evaluate --control data/ratings_control.csv --rubric data/ratings_rubric.csv --out reports`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, opts, domain.ModeFull)
		},
	}

	addEvaluateFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.PromptsPath, "prompts", "", "prompt catalog used for coverage warnings")
	cmd.Flags().BoolVar(&opts.NoPlot, "no-plot", false, "skip the paired-difference plot")
	cmd.Flags().BoolVar(&opts.NoJSON, "no-json", false, "skip the JSON summary")

	return cmd
}

// NewStressCommand creates the stress command, which writes only the
// compact stress summary table.
func NewStressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run the evaluation on a stress-test dataset",
		Long: `Run the evaluation on a stress-test dataset.

Writes only the stress summary table: sample size, reliability and the
paired-test statistics, without medians or plots.

Example:
  rubriceval stress --control stress/control.csv --rubric stress/rubric.csv --out stress/reports`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, opts, domain.ModeStress)
		},
	}

	addEvaluateFlags(cmd, opts)

	return cmd
}

func addEvaluateFlags(cmd *cobra.Command, opts *EvaluateOptions) {
	cmd.Flags().StringVar(&opts.ControlPath, "control", "", "control ratings table (.csv, .tsv, .xlsx)")
	cmd.Flags().StringVar(&opts.RubricPath, "rubric", "", "rubric ratings table (.csv, .tsv, .xlsx)")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "output directory")
	cmd.Flags().StringVar(&opts.Aggregation, "aggregation", "", "per-prompt aggregation method (median|mean)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "worksheet read from .xlsx tables")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this .prom file")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "do not print the summary table")
}

func (o *EvaluateOptions) apply(cfg *application.Config) {
	if o.ControlPath != "" {
		cfg.Data.ControlPath = o.ControlPath
	}
	if o.RubricPath != "" {
		cfg.Data.RubricPath = o.RubricPath
	}
	if o.PromptsPath != "" {
		cfg.Data.PromptsPath = o.PromptsPath
	}
	if o.OutDir != "" {
		cfg.Output.Dir = o.OutDir
	}
	if o.Aggregation != "" {
		cfg.Aggregation.Method = o.Aggregation
		cfg.Aggregation.Params = nil
	}
	if o.Sheet != "" {
		cfg.Data.Sheet = o.Sheet
	}
	if o.NoPlot {
		cfg.Output.WritePlot = false
	}
	if o.NoJSON {
		cfg.Output.WriteJSON = false
	}
	if o.MetricsTextfile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.TextfilePath = o.MetricsTextfile
	}
}

func runEvaluation(cmd *cobra.Command, opts *EvaluateOptions, mode domain.Mode) error {
	registry := application.NewAggregatorRegistry()
	cfg, err := loadConfig(opts.RootOptions, registry, opts.apply)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	agg, err := registry.Create(cfg.Aggregation.Method, "", cfg.Aggregation.Params)
	if err != nil {
		return err
	}

	evalOpts := []application.EvaluatorOption{
		application.WithLogger(logger),
		application.WithSummaryOutput(domain.ModeFull, cfg.SummaryPath(), report.NewSummaryTSV()),
		application.WithSummaryOutput(domain.ModeStress, cfg.StressSummaryPath(), report.NewStressTSV()),
	}
	if cfg.Output.WriteJSON {
		evalOpts = append(evalOpts, application.WithSummaryOutput(domain.ModeFull, cfg.JSONPath(), report.NewJSONWriter()))
	}
	if cfg.Output.WritePlot {
		evalOpts = append(evalOpts, application.WithPlotOutput(cfg.PlotPath(), report.NewPNGDeltaPlotter(cfg.Aggregation.Method)))
	}

	if mode == domain.ModeFull {
		catalog, err := loadCatalog(cmd.Context(), logger, cfg.Data.PromptsPath)
		if err != nil {
			return err
		}
		evalOpts = append(evalOpts, application.WithPromptCatalog(catalog))
	}

	var metrics *middleware.PrometheusMetrics
	var collector ports.MetricsCollector
	if cfg.Metrics.Enabled {
		metrics = middleware.NewPrometheusMetrics(nil)
		collector = metrics
		evalOpts = append(evalOpts, application.WithMetrics(metrics))
	}
	evalOpts = append(evalOpts, application.WithStageObserver(middleware.NewOTelStageObserver(collector, string(mode))))

	source := ratings.NewFileSource(cfg.Data.ControlPath, cfg.Data.RubricPath,
		ratings.WithSheet(cfg.Data.Sheet),
		ratings.WithLogger(logger),
	)
	evaluator, err := application.NewEvaluator(source, agg, evalOpts...)
	if err != nil {
		return err
	}

	summary, runErr := evaluator.Run(cmd.Context(), mode)

	if metrics != nil && cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteToTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.TextfilePath).Msg("failed to write metrics textfile")
		} else {
			logger.Debug().Str("path", cfg.Metrics.TextfilePath).Msg("metrics written")
		}
	}
	if runErr != nil {
		return runErr
	}

	if !opts.Quiet {
		return report.NewConsoleTable(language.English).Write(cmd.OutOrStdout(), summary)
	}
	return nil
}

// loadCatalog reads the prompt catalog at path. A missing catalog is not
// an error; coverage checks are skipped.
func loadCatalog(ctx context.Context, logger zerolog.Logger, path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Debug().Str("path", path).Msg("prompt catalog not found, skipping coverage check")
		return nil, nil
	}
	return ratings.LoadPromptIDs(ctx, path)
}
