package flowcanvas

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/chat"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/graph"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/journal"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// DefaultMaxSteps bounds a chain walk so a cycle cannot run forever.
const DefaultMaxSteps = 1000

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. Defaults to a no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithSpans sets the span manager. Defaults to a no-op.
func WithSpans(s observability.SpanManager) Option {
	return func(e *Engine) {
		if s != nil {
			e.spans = s
		}
	}
}

// WithJournal records every chain step in j.
func WithJournal(j journal.Store) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithChat sets the client used by the ai runner. Without one the ai
// runner always takes the mock reply path.
func WithChat(c chat.Client) Option {
	return func(e *Engine) {
		e.chat = c
	}
}

// WithMaxSteps sets the chain step limit.
// Default: DefaultMaxSteps. Values below 1 are ignored.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithClock sets the clock used for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunner registers r for kind, replacing any built-in runner.
func WithRunner(kind graph.Kind, r Runner) Option {
	return func(e *Engine) {
		e.runners.Register(kind, r)
	}
}

// RunOption configures one chain walk.
type RunOption func(*runConfig)

type runConfig struct {
	trigger string
	op      string
	runID   string
}

// WithTrigger names what started the walk (for logs, spans and metrics).
func WithTrigger(name string) RunOption {
	return func(c *runConfig) { c.trigger = name }
}

// WithOp passes an operation override to the first node of the walk only.
func WithOp(op string) RunOption {
	return func(c *runConfig) { c.op = op }
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}
