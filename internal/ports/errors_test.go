package ports

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLoadError tests message formatting and unwrapping of LoadError for
// the different amounts of position information a loader may have.
func TestLoadError(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		line    int
		column  string
		err     error
		wantMsg string
	}{
		{
			name:    "file level failure",
			path:    "data/ratings_control.csv",
			err:     ErrEmptyTable,
			wantMsg: "load error: path=data/ratings_control.csv, err=empty table",
		},
		{
			name:    "missing header column",
			path:    "ratings.tsv",
			line:    1,
			column:  "rating",
			err:     ErrMissingColumn,
			wantMsg: "load error: path=ratings.tsv, line=1, column=rating, err=missing column",
		},
		{
			name:    "bad cell",
			path:    "ratings.xlsx",
			line:    14,
			column:  "rating",
			err:     ErrInvalidRating,
			wantMsg: "load error: path=ratings.xlsx, line=14, column=rating, err=invalid rating",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLoadError(tt.path, tt.line, tt.column, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())
			assert.True(t, errors.Is(err, tt.err), "Should unwrap to underlying error")
		})
	}
}

// TestReportError verifies that the error message carries the artifact and
// destination and that the cause is reachable with errors.Is.
func TestReportError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewReportError("summary", "reports/summary.tsv", cause)

	assert.Equal(t, "report error: artifact=summary, path=reports/summary.tsv, err=disk full", err.Error())
	assert.True(t, errors.Is(err, cause))
}

// TestMetricsError tests the functionality of the MetricsError error type.
func TestMetricsError(t *testing.T) {
	err := NewMetricsError("rubriceval_alpha", "WriteToTextfile", ErrUnsupportedFormat)

	assert.Equal(t, "metrics error: operation=WriteToTextfile, metric=rubriceval_alpha, err=unsupported format", err.Error())
	assert.Equal(t, "rubriceval_alpha", err.Metric)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

// TestConfigError tests the functionality of the ConfigError error type.
func TestConfigError(t *testing.T) {
	err := NewConfigError("data.control_path", ErrConfigNotFound)

	assert.Equal(t, "config error: key=data.control_path, err=configuration not found", err.Error())
	assert.Equal(t, "data.control_path", err.ConfigKey)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}
