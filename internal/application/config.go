// Package application provides the configuration, validation and
// orchestration of rubric-versus-control evaluation runs.
package application

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

// EnvPrefix is the prefix of environment variables that override
// configuration values, e.g. RUBRICEVAL_DATA_CONTROL_PATH.
const EnvPrefix = "RUBRICEVAL"

// Config is the complete configuration of an evaluation run and the
// primary configuration entry point of the system.
type Config struct {
	// Data locates the ratings tables for both conditions.
	Data DataConfig `yaml:"data" validate:"required"`
	// Output controls where and which report artifacts are written.
	Output OutputConfig `yaml:"output" validate:"required"`
	// Aggregation selects how the ratings of one prompt are combined.
	Aggregation AggregationConfig `yaml:"aggregation"`
	// Log configures the process logger.
	Log LogConfig `yaml:"log"`
	// Metrics configures Prometheus metrics export.
	Metrics MetricsConfig `yaml:"metrics"`
}

// DataConfig locates the long-format ratings tables.
type DataConfig struct {
	// ControlPath is the ratings table of the control condition.
	ControlPath string `yaml:"control_path" split_words:"true" validate:"required,ratingsfile"`
	// RubricPath is the ratings table of the rubric condition.
	RubricPath string `yaml:"rubric_path" split_words:"true" validate:"required,ratingsfile"`
	// PromptsPath optionally names the prompt catalog used for coverage checks.
	PromptsPath string `yaml:"prompts_path" split_words:"true" validate:"omitempty,ratingsfile"`
	// Sheet selects the worksheet read from .xlsx tables; empty means the first.
	Sheet string `yaml:"sheet" split_words:"true" validate:"max=31"`
}

// OutputConfig controls report artifacts. File names are joined to Dir.
type OutputConfig struct {
	Dir               string `yaml:"dir" split_words:"true" validate:"required"`
	SummaryFile       string `yaml:"summary_file" split_words:"true" validate:"required"`
	StressSummaryFile string `yaml:"stress_summary_file" split_words:"true" validate:"required"`
	JSONFile          string `yaml:"json_file" split_words:"true" validate:"required_if=WriteJSON true"`
	PlotFile          string `yaml:"plot_file" split_words:"true" validate:"required_if=WritePlot true"`
	// WriteJSON enables the JSON summary in full runs.
	WriteJSON bool `yaml:"write_json" split_words:"true"`
	// WritePlot enables the paired-difference plot in full runs.
	WritePlot bool `yaml:"write_plot" split_words:"true"`
}

// AggregationConfig selects the per-prompt aggregation method.
type AggregationConfig struct {
	// Method is a registered aggregation method name (median, mean).
	Method string `yaml:"method" split_words:"true" validate:"required,aggregation"`
	// Params holds method-specific parameters.
	Params map[string]any `yaml:"params" ignored:"true"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=console json"`
}

// MetricsConfig configures Prometheus metrics export.
type MetricsConfig struct {
	// Enabled turns on metrics collection.
	Enabled bool `yaml:"enabled" split_words:"true"`
	// TextfilePath, when set, receives the metrics in text exposition
	// format at the end of a run for node-exporter collection.
	TextfilePath string `yaml:"textfile_path" split_words:"true" validate:"omitempty,endswith=.prom"`
}

// DefaultConfig returns the configuration of the conventional project
// layout: ratings under data/ and reports under reports/.
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			ControlPath: filepath.Join("data", "ratings_control.csv"),
			RubricPath:  filepath.Join("data", "ratings_rubric.csv"),
			PromptsPath: filepath.Join("data", "prompts.csv"),
		},
		Output: OutputConfig{
			Dir:               "reports",
			SummaryFile:       "summary.tsv",
			StressSummaryFile: "stress_summary.tsv",
			JSONFile:          "summary.json",
			PlotFile:          "delta_plot.png",
			WriteJSON:         true,
			WritePlot:         true,
		},
		Aggregation: AggregationConfig{Method: MethodMedian},
		Log:         LogConfig{Level: "info", Format: "console"},
	}
}

// SummaryPath returns the location of the full-run summary table.
func (c Config) SummaryPath() string { return filepath.Join(c.Output.Dir, c.Output.SummaryFile) }

// StressSummaryPath returns the location of the stress-run summary table.
func (c Config) StressSummaryPath() string {
	return filepath.Join(c.Output.Dir, c.Output.StressSummaryFile)
}

// JSONPath returns the location of the JSON summary.
func (c Config) JSONPath() string { return filepath.Join(c.Output.Dir, c.Output.JSONFile) }

// PlotPath returns the location of the paired-difference plot.
func (c Config) PlotPath() string { return filepath.Join(c.Output.Dir, c.Output.PlotFile) }

// LoadConfig builds a Config from defaults, an optional YAML file and
// environment overrides, in that order, and validates the result against
// registry. An empty path skips the file. A nil registry means the
// built-in aggregation methods.
func LoadConfig(path string, registry *AggregatorRegistry) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, ports.NewConfigError(path, ports.ErrConfigNotFound)
			}
			return Config{}, ports.NewConfigError(path, err)
		}
		if err := DecodeConfig(data, &cfg); err != nil {
			return Config{}, ports.NewConfigError(path, err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := ValidateConfig(cfg, registry); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeConfig overlays YAML data onto cfg. Unknown keys are rejected.
func DecodeConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overlays RUBRICEVAL_* environment variables onto cfg.
// Variables that are not set leave the corresponding field unchanged.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return ports.NewConfigError(EnvPrefix, err)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return ports.NewConfigError(p, err)
		}
	}
	return nil
}
