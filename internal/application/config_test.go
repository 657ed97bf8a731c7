package application

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/gavel-rubric/internal/domain"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

func modeFactory(id string, _ map[string]any) (ports.Aggregator, error) {
	return constantAggregator{name: id}, nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rubriceval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateConfig(cfg, nil))

	assert.Equal(t, filepath.Join("data", "ratings_control.csv"), cfg.Data.ControlPath)
	assert.Equal(t, filepath.Join("reports", "summary.tsv"), cfg.SummaryPath())
	assert.Equal(t, filepath.Join("reports", "stress_summary.tsv"), cfg.StressSummaryPath())
	assert.Equal(t, filepath.Join("reports", "delta_plot.png"), cfg.PlotPath())
	assert.Equal(t, filepath.Join("reports", "summary.json"), cfg.JSONPath())
	assert.Equal(t, MethodMedian, cfg.Aggregation.Method)
}

func TestLoadConfig_File(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		verify func(t *testing.T, cfg Config)
	}{
		{
			name: "partial file keeps defaults",
			yaml: `
data:
  control_path: in/control.tsv
  rubric_path: in/rubric.xlsx
  sheet: Ratings
`,
			verify: func(t *testing.T, cfg Config) {
				assert.Equal(t, "in/control.tsv", cfg.Data.ControlPath)
				assert.Equal(t, "in/rubric.xlsx", cfg.Data.RubricPath)
				assert.Equal(t, "Ratings", cfg.Data.Sheet)
				assert.Equal(t, "reports", cfg.Output.Dir)
				assert.True(t, cfg.Output.WritePlot)
			},
		},
		{
			name: "aggregation with params",
			yaml: `
aggregation:
  method: mean
  params:
    min_ratings: 2
log:
  level: debug
  format: json
metrics:
  enabled: true
  textfile_path: out/rubriceval.prom
`,
			verify: func(t *testing.T, cfg Config) {
				assert.Equal(t, MethodMean, cfg.Aggregation.Method)
				assert.Equal(t, 2, cfg.Aggregation.Params["min_ratings"])
				assert.Equal(t, "json", cfg.Log.Format)
				assert.True(t, cfg.Metrics.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tt.yaml), nil)
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.ErrorIs(t, err, ports.ErrConfigNotFound)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "data:\n  control: x.csv\n"), nil)
		var cfgErr *ports.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, err.Error(), "control")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "data: [unterminated\n"), nil)
		assert.Error(t, err)
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantMsg string
	}{
		{
			name:    "unsupported ratings extension",
			mutate:  func(cfg *Config) { cfg.Data.ControlPath = "ratings.json" },
			wantMsg: `Data.ControlPath "ratings.json" must end in one of .csv, .tsv, .tab, .xlsx`,
		},
		{
			name:    "unknown aggregation",
			mutate:  func(cfg *Config) { cfg.Aggregation.Method = "mode" },
			wantMsg: `Aggregation.Method "mode" is not one of mean, median`,
		},
		{
			name:    "missing output dir",
			mutate:  func(cfg *Config) { cfg.Output.Dir = "" },
			wantMsg: "Output.Dir is required",
		},
		{
			name: "plot requested without file",
			mutate: func(cfg *Config) {
				cfg.Output.PlotFile = ""
			},
			wantMsg: "Output.PlotFile is required",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.Log.Level = "loud" },
			wantMsg: `Log.Level "loud" must be one of trace debug info warn error`,
		},
		{
			name:    "metrics textfile extension",
			mutate:  func(cfg *Config) { cfg.Metrics.TextfilePath = "metrics.txt" },
			wantMsg: "Metrics.TextfilePath failed endswith validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := ValidateConfig(cfg, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, []string{tt.wantMsg}, vErr.Errors)
		})
	}

	t.Run("plot disabled needs no file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output.WritePlot = false
		cfg.Output.PlotFile = ""
		assert.NoError(t, ValidateConfig(cfg, nil))
	})

	t.Run("custom method registered", func(t *testing.T) {
		reg := NewAggregatorRegistry()
		require.NoError(t, reg.Register("mode", modeFactory))
		cfg := DefaultConfig()
		cfg.Aggregation.Method = "mode"
		assert.NoError(t, ValidateConfig(cfg, reg))
	})
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RUBRICEVAL_DATA_CONTROL_PATH", "env/control.csv")
	t.Setenv("RUBRICEVAL_OUTPUT_DIR", "env-reports")
	t.Setenv("RUBRICEVAL_OUTPUT_WRITE_PLOT", "false")
	t.Setenv("RUBRICEVAL_AGGREGATION_METHOD", "mean")

	cfg, err := LoadConfig(writeConfig(t, "data:\n  control_path: file/control.csv\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, "env/control.csv", cfg.Data.ControlPath, "environment wins over the file")
	assert.Equal(t, "env-reports", cfg.Output.Dir)
	assert.False(t, cfg.Output.WritePlot)
	assert.Equal(t, MethodMean, cfg.Aggregation.Method)
}

func TestLoadConfig_EnvInvalidBool(t *testing.T) {
	t.Setenv("RUBRICEVAL_OUTPUT_WRITE_JSON", "perhaps")

	_, err := LoadConfig("", nil)
	var cfgErr *ports.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, EnvPrefix, cfgErr.ConfigKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RUBRICEVAL_OUTPUT_DIR=dotenv-reports\n"), 0o600))

	// Register cleanup through t.Setenv so the variable loaded from the
	// file does not leak into other tests.
	t.Setenv("RUBRICEVAL_OUTPUT_DIR", "")
	require.NoError(t, os.Unsetenv("RUBRICEVAL_OUTPUT_DIR"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-reports", cfg.Output.Dir)
}
