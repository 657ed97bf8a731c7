package ports

import (
	"context"
	"io"
	"time"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

// RatingsSource defines the interface for loading long-format human ratings.
// Implementations could read CSV or spreadsheet files, databases, or
// annotation-tool exports.
type RatingsSource interface {
	// Load reads every rating collected under the given condition.
	// The returned ConditionRatings carries the condition and a description
	// of where the data came from.
	//
	// Implementations should honor ctx cancellation for large inputs and
	// return a *LoadError describing the offending file and position when
	// a record cannot be parsed.
	Load(ctx context.Context, condition domain.Condition) (domain.ConditionRatings, error)
}

// SummaryWriter defines the interface for persisting an evaluation summary.
// Implementations decide the format (TSV, JSON, console table).
type SummaryWriter interface {
	// Write serializes the summary to w.
	Write(w io.Writer, summary domain.Summary) error
}

// DeltaPlotter renders the per-prompt paired differences as an image.
type DeltaPlotter interface {
	// Plot writes a rendering of pairs to w.
	Plot(w io.Writer, pairs domain.PairedScores) error
}

// Aggregator reduces the ratings several raters gave one item into a
// single representative score.
type Aggregator interface {
	// Name returns the registry name of the aggregation strategy.
	Name() string

	// Aggregate combines values into one score. Implementations must not
	// mutate values and should reject empty input or non-finite values.
	Aggregate(values []float64) (float64, error)
}

// AggregatorFactory creates an Aggregator from a generic parameter map,
// typically decoded from YAML configuration.
type AggregatorFactory func(id string, params map[string]any) (Aggregator, error)

// AggregatorRegistry resolves aggregation method names to Aggregator
// instances.
type AggregatorRegistry interface {
	// Create builds the aggregator registered under method.
	Create(method, id string, params map[string]any) (Aggregator, error)

	// Register adds or replaces the factory for method.
	Register(method string, factory AggregatorFactory) error

	// SupportedMethods returns the registered method names in sorted order.
	SupportedMethods() []string
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus,
// OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like completed runs, load errors, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking the latest reliability coefficients,
	// p-values and effect sizes.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like rating values or
	// paired differences.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// StageObserver observes the stages of an evaluation run, typically by
// opening a trace span and recording stage latency.
type StageObserver interface {
	// Start begins observing stage. It returns a context carrying any
	// trace state and a function that must be called exactly once with
	// the outcome of the stage.
	Start(ctx context.Context, stage string) (context.Context, func(err error))
}
