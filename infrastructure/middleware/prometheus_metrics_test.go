package middleware

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

// exposition returns the text exposition of everything in pm's registry.
func exposition(t *testing.T, pm *PrometheusMetrics) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, pm.WriteToTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// TestNewPrometheusMetrics verifies that a new PrometheusMetrics instance is
// created with all its internal metrics properly initialized.
func TestNewPrometheusMetrics(t *testing.T) {
	pm := NewPrometheusMetrics(nil)

	assert.NotNil(t, pm.Registry())
	assert.NotNil(t, pm.stageLatency)
	assert.NotNil(t, pm.runCounter)
	assert.NotNil(t, pm.operationCounter)
	assert.NotNil(t, pm.statistics)
	assert.NotNil(t, pm.values)

	var _ ports.MetricsCollector = pm
}

// TestNewPrometheusMetrics_IndependentRegistries verifies that collectors do
// not collide, which would panic with the global registry.
func TestNewPrometheusMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = NewPrometheusMetrics(nil)
		_ = NewPrometheusMetrics(nil)
	})

	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)
	assert.Same(t, reg, pm.Registry())
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := NewPrometheusMetrics(nil)

	pm.RecordCounter(MetricRunsTotal, 1, map[string]string{"mode": "full", "status": "success"})
	pm.RecordCounter(MetricRunsTotal, 1, map[string]string{"mode": "full", "status": "success"})
	pm.RecordCounter(MetricRunsTotal, 1, map[string]string{"mode": "stress", "status": "error"})
	pm.RecordCounter("ratings_loaded", 48, map[string]string{"condition": "control"})
	pm.RecordCounter("prompts_unrated", 2, nil)

	out := exposition(t, pm)
	assert.Contains(t, out, `rubriceval_runs_total{mode="full",status="success"} 2`)
	assert.Contains(t, out, `rubriceval_runs_total{mode="stress",status="error"} 1`)
	assert.Contains(t, out, `rubriceval_operations_total{condition="control",operation="ratings_loaded"} 48`)
	assert.Contains(t, out, `rubriceval_operations_total{condition="none",operation="prompts_unrated"} 2`)
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm := NewPrometheusMetrics(nil)

	pm.RecordGauge("alpha", 0.5, map[string]string{"condition": "control"})
	pm.RecordGauge("alpha", 0.75, map[string]string{"condition": "control"})
	pm.RecordGauge("p_two_sided", 0.0125, nil)
	pm.RecordGauge("alpha", math.NaN(), map[string]string{"condition": "rubric"})

	out := exposition(t, pm)
	assert.Contains(t, out, `rubriceval_statistic{condition="control",statistic="alpha"} 0.75`, "gauge keeps the latest value")
	assert.Contains(t, out, `rubriceval_statistic{condition="paired",statistic="p_two_sided"} 0.0125`)
	assert.Contains(t, out, `rubriceval_statistic{condition="rubric",statistic="alpha"} NaN`)
}

func TestPrometheusMetrics_RecordHistogramAndLatency(t *testing.T) {
	pm := NewPrometheusMetrics(nil)

	for _, d := range []float64{-1, 0, 0.5, 2} {
		pm.RecordHistogram("paired_difference", d, nil)
	}
	pm.RecordLatency("load", 20*time.Millisecond, map[string]string{"mode": "full"})
	pm.RecordLatency("load", time.Millisecond, nil)

	out := exposition(t, pm)
	assert.Contains(t, out, `rubriceval_value_distribution_count{condition="paired",metric="paired_difference"} 4`)
	assert.Contains(t, out, `rubriceval_value_distribution_sum{condition="paired",metric="paired_difference"} 1.5`)
	assert.Contains(t, out, `rubriceval_stage_duration_seconds_count{mode="full",stage="load"} 1`)
	assert.Contains(t, out, `rubriceval_stage_duration_seconds_count{mode="unknown",stage="load"} 1`)
}

func TestPrometheusMetrics_WriteToTextfile_Error(t *testing.T) {
	pm := NewPrometheusMetrics(nil)
	pm.RecordCounter(MetricRunsTotal, 1, nil)

	err := pm.WriteToTextfile(filepath.Join(t.TempDir(), "missing-dir", "metrics.prom"))
	require.Error(t, err)

	var mErr *ports.MetricsError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, "WriteToTextfile", mErr.Operation)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "x", label(map[string]string{"k": "x"}, "k", "d"))
	assert.Equal(t, "d", label(map[string]string{"k": ""}, "k", "d"))
	assert.Equal(t, "d", label(nil, "k", "d"))
}
