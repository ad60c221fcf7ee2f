package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of every instrument.
const MeterName = "flowcanvas"

// MetricsRecorder records canvas metrics.
// Use NewMetricsRecorder for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeRun records one node run with its kind and outcome.
	RecordNodeRun(ctx context.Context, kind string, ok bool, duration time.Duration)

	// RecordChain records a finished chain walk.
	RecordChain(ctx context.Context, trigger string, steps int, ok bool, duration time.Duration)

	// RecordHistory records an undo stack operation (commit, undo, redo).
	RecordHistory(ctx context.Context, op string)

	// RecordJournalWrite records the encoded size of a journal step.
	RecordJournalWrite(ctx context.Context, sizeBytes int64)
}

type otelMetrics struct {
	nodeRuns     metric.Int64Counter
	nodeLatency  metric.Float64Histogram
	nodeFailures metric.Int64Counter
	chainRuns    metric.Int64Counter
	chainLength  metric.Int64Histogram
	historyOps   metric.Int64Counter
	journalSize  metric.Int64Histogram
}

// NewMetricsRecorder creates a recorder on mp, or on the global meter
// provider when mp is nil.
func NewMetricsRecorder(mp metric.MeterProvider) (MetricsRecorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(MeterName)

	m := &otelMetrics{}
	var err error

	if m.nodeRuns, err = meter.Int64Counter("flowcanvas.node.runs",
		metric.WithDescription("Number of node runs"),
	); err != nil {
		return nil, err
	}
	if m.nodeLatency, err = meter.Float64Histogram("flowcanvas.node.latency_ms",
		metric.WithDescription("Node run latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.nodeFailures, err = meter.Int64Counter("flowcanvas.node.failures",
		metric.WithDescription("Number of node runs that returned ok=false"),
	); err != nil {
		return nil, err
	}
	if m.chainRuns, err = meter.Int64Counter("flowcanvas.chain.runs",
		metric.WithDescription("Number of chain walks"),
	); err != nil {
		return nil, err
	}
	if m.chainLength, err = meter.Int64Histogram("flowcanvas.chain.length",
		metric.WithDescription("Nodes run per chain walk"),
	); err != nil {
		return nil, err
	}
	if m.historyOps, err = meter.Int64Counter("flowcanvas.history.ops",
		metric.WithDescription("Undo stack operations"),
	); err != nil {
		return nil, err
	}
	if m.journalSize, err = meter.Int64Histogram("flowcanvas.journal.size_bytes",
		metric.WithDescription("Encoded journal step size"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordNodeRun(ctx context.Context, kind string, ok bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.nodeRuns.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, ms(duration), attrs)
	if !ok {
		m.nodeFailures.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordChain(ctx context.Context, trigger string, steps int, ok bool, _ time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.Bool("ok", ok),
	)
	m.chainRuns.Add(ctx, 1, attrs)
	m.chainLength.Record(ctx, int64(steps), attrs)
}

func (m *otelMetrics) RecordHistory(ctx context.Context, op string) {
	m.historyOps.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *otelMetrics) RecordJournalWrite(ctx context.Context, sizeBytes int64) {
	m.journalSize.Record(ctx, sizeBytes)
}
