package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while talking to files and
// other external collaborators.
var (
	// ErrMissingColumn indicates that a required column is absent from a
	// ratings table.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidRating indicates that a rating cell is not a finite number.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrEmptyTable indicates that a table has a header but no records, or
	// no header at all.
	ErrEmptyTable = errors.New("empty table")

	// ErrUnsupportedFormat indicates that a file extension is not handled.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// LoadError represents a failure to read or parse a ratings source.
// Line and Column are 1-based; zero means the position is unknown.
type LoadError struct {
	// Path is the file that failed to load.
	Path string

	// Line is the record number where parsing failed, header included.
	Line int

	// Column is the column name involved in the failure, if any.
	Column string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for LoadError.
func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load error: path=%s", e.Path)
	if e.Line > 0 {
		msg += fmt.Sprintf(", line=%d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(", column=%s", e.Column)
	}
	return msg + fmt.Sprintf(", err=%v", e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError creates a new LoadError with the given details.
func NewLoadError(path string, line int, column string, err error) *LoadError {
	return &LoadError{
		Path:   path,
		Line:   line,
		Column: column,
		Err:    err,
	}
}

// ReportError represents a failure to produce an output artifact.
type ReportError struct {
	// Artifact names the output being produced (summary, plot, ...).
	Artifact string

	// Path is the destination of the artifact.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ReportError.
func (e *ReportError) Error() string {
	return fmt.Sprintf("report error: artifact=%s, path=%s, err=%v", e.Artifact, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReportError) Unwrap() error { return e.Err }

// NewReportError creates a new ReportError with the given details.
func NewReportError(artifact, path string, err error) *ReportError {
	return &ReportError{
		Artifact: artifact,
		Path:     path,
		Err:      err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
