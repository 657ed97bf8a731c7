// Package middleware provides cross-cutting concerns for evaluation runs:
// Prometheus metrics and OpenTelemetry stage tracing.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

// Well-known metric names understood by PrometheusMetrics. Other names are
// routed to the generic operation counter, statistic gauge or value
// histogram.
const (
	MetricRunsTotal = "runs_total"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks run outcomes, stage latency, the latest reliability and
// paired-test statistics, and distributions of ratings and paired
// differences.
//
// Metrics are registered in a dedicated registry rather than the global
// one, so several collectors can coexist in one process.
type PrometheusMetrics struct {
	registry         *prometheus.Registry
	stageLatency     *prometheus.HistogramVec
	runCounter       *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	statistics       *prometheus.GaugeVec
	values           *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all metrics in reg. A nil reg gets a fresh registry.
func NewPrometheusMetrics(reg *prometheus.Registry) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubriceval_stage_duration_seconds",
				Help:    "Execution time of evaluation run stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "mode"},
		),
		runCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubriceval_runs_total",
				Help: "Total number of evaluation runs by outcome.",
			},
			[]string{"mode", "status"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubriceval_operations_total",
				Help: "Counts of evaluation events such as loaded ratings or failed stages.",
			},
			[]string{"operation", "condition"},
		),
		statistics: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rubriceval_statistic",
				Help: "Latest value of reliability and paired-test statistics.",
			},
			[]string{"statistic", "condition"},
		),
		values: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubriceval_value_distribution",
				Help:    "Distribution of per-prompt scores and paired differences.",
				Buckets: prometheus.LinearBuckets(-6, 0.5, 25),
			},
			[]string{"metric", "condition"},
		),
	}
}

// Registry returns the registry holding the collector's metrics.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry { return pm.registry }

// WriteToTextfile writes every metric in the registry to path in the text
// exposition format, for collection by the node exporter textfile
// collector.
func (pm *PrometheusMetrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return ports.NewMetricsError("*", "WriteToTextfile", err)
	}
	return nil
}

func label(labels map[string]string, key, def string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return def
}

// RecordLatency implements the MetricsCollector interface by recording
// stage latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.stageLatency.WithLabelValues(operation, label(labels, "mode", "unknown")).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricRunsTotal:
		pm.runCounter.WithLabelValues(
			label(labels, "mode", "unknown"),
			label(labels, "status", "success"),
		).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, label(labels, "condition", "none")).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values. Statistics that describe the comparison rather
// than one condition use the condition label "paired".
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.statistics.WithLabelValues(metric, label(labels, "condition", "paired")).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.values.WithLabelValues(metric, label(labels, "condition", "paired")).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
