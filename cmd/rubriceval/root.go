package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ahrav/gavel-rubric/internal/application"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
}

// ValidLogFormats defines the allowed log formats.
var ValidLogFormats = []string{"console", "json"}

// NewRootCommand creates the root command of the rubriceval CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rubriceval",
		Short: "Evaluate rubric prompting against a control condition",
		Long: `rubriceval measures whether rubric prompting changes human ratings.

It computes Krippendorff's alpha per condition, aggregates each prompt's
ratings, and runs a Wilcoxon signed-rank test on the paired prompt scores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogFormat != "" && !slices.Contains(ValidLogFormats, opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidLogFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (console|json)")

	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewStressCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))

	return cmd
}

// loadConfig resolves the configuration of a run: .env file, YAML file,
// environment, then command-line overrides, validated last.
func loadConfig(opts *RootOptions, registry *application.AggregatorRegistry, override func(*application.Config)) (application.Config, error) {
	if err := application.LoadDotEnv(opts.EnvFile); err != nil {
		return application.Config{}, err
	}
	cfg, err := application.LoadConfig(opts.ConfigPath, registry)
	if err != nil {
		return application.Config{}, err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if override != nil {
		override(&cfg)
	}

	if err := application.ValidateConfig(cfg, registry); err != nil {
		return application.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger writing to out.
func newLogger(out io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
	}

	w := out
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl), nil
}
