package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanProcessor writes every finished span to a logger at debug level.
// It lets the binary trace chain walks without an exporter.
type LogSpanProcessor struct {
	logger *slog.Logger
}

var _ sdktrace.SpanProcessor = (*LogSpanProcessor)(nil)

// NewLogSpanProcessor returns a processor logging to logger.
func NewLogSpanProcessor(logger *slog.Logger) *LogSpanProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSpanProcessor{logger: logger}
}

// OnStart implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := []any{
		slog.String("span", s.Name()),
		slog.String("trace_id", s.SpanContext().TraceID().String()),
		slog.String("span_id", s.SpanContext().SpanID().String()),
		slog.Float64("duration_ms", ms(s.EndTime().Sub(s.StartTime()))),
	}
	if s.Parent().IsValid() {
		attrs = append(attrs, slog.String("parent_id", s.Parent().SpanID().String()))
	}
	for _, kv := range s.Attributes() {
		attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
	}
	if st := s.Status(); st.Code == codes.Error {
		attrs = append(attrs, slog.String("error", st.Description))
	}
	p.logger.Debug("span ended", attrs...)
}

// Shutdown implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) ForceFlush(context.Context) error { return nil }
