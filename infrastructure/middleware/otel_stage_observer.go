package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

var _ ports.StageObserver = (*OTelStageObserver)(nil)

// TracerName is the instrumentation name of evaluation spans.
const TracerName = "github.com/ahrav/gavel-rubric"

// OTelStageObserver implements observability for evaluation stages using
// OpenTelemetry tracing. Each stage becomes a span; its latency and any
// failure are also reported to the metrics collector when one is set.
type OTelStageObserver struct {
	metrics ports.MetricsCollector
	mode    string
	tracer  trace.Tracer
}

// NewOTelStageObserver creates a stage observer for runs in mode. metrics
// may be nil.
func NewOTelStageObserver(metrics ports.MetricsCollector, mode string) *OTelStageObserver {
	return &OTelStageObserver{
		metrics: metrics,
		mode:    mode,
		tracer:  otel.Tracer(TracerName),
	}
}

// Start implements the StageObserver interface. It starts a span named
// after the stage and returns the function that ends it.
func (o *OTelStageObserver) Start(ctx context.Context, stage string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "rubriceval."+stage, trace.WithAttributes(
		attribute.String("rubriceval.stage", stage),
		attribute.String("rubriceval.mode", o.mode),
	))

	return ctx, func(err error) {
		defer span.End()

		elapsed := time.Since(start)
		labels := map[string]string{"mode": o.mode, "stage": stage}
		if o.metrics != nil {
			o.metrics.RecordLatency(stage, elapsed, labels)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if o.metrics != nil {
				o.metrics.RecordCounter("stage_failures", 1, labels)
			}
			return
		}
		span.SetStatus(codes.Ok, stage+" completed")
	}
}
