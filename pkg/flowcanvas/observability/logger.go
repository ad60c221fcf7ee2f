// Package observability carries the logging, metrics and tracing used by
// the canvas engine and session.
//
// Logging goes through log/slog. Metrics and spans go through OpenTelemetry
// and default to no-op implementations. Every helper tolerates a nil logger.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run context to a logger.
func EnrichLogger(logger *slog.Logger, runID, nodeID, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.String("kind", kind),
	)
}

// LogChainStart logs the start of a chain walk.
func LogChainStart(logger *slog.Logger, runID, trigger, startNode string) {
	if logger == nil {
		return
	}
	logger.Info("chain starting",
		slog.String("run_id", runID),
		slog.String("trigger", trigger),
		slog.String("start_node", startNode),
	)
}

// LogChainComplete logs the end of a chain walk. lastNode is the final node
// that ran and stoppedOK reports whether it succeeded.
func LogChainComplete(logger *slog.Logger, runID string, steps int, lastNode string, stoppedOK bool, d time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("chain completed",
		slog.String("run_id", runID),
		slog.Int("steps", steps),
		slog.String("last_node", lastNode),
		slog.Bool("ok", stoppedOK),
		slog.Float64("duration_ms", ms(d)),
	)
}

// LogChainError logs a chain walk aborted by cancellation or the step limit.
func LogChainError(logger *slog.Logger, runID string, steps int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("chain aborted",
		slog.String("run_id", runID),
		slog.Int("steps", steps),
		slog.String("error", err.Error()),
	)
}

// LogNodeStart logs a node run starting.
func LogNodeStart(logger *slog.Logger, nodeID, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.String("kind", kind),
	)
}

// LogNodeComplete logs a node run result.
func LogNodeComplete(logger *slog.Logger, nodeID string, ok bool, msg string, d time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Bool("ok", ok),
		slog.String("msg", msg),
		slog.Float64("duration_ms", ms(d)),
	)
}

// LogNodeError logs a runner fault that was converted to a failed result.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogJournalError logs a journal write failure. Journal failures never
// fail a run.
func LogJournalError(logger *slog.Logger, runID, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal write failed",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogHistory logs an undo stack operation.
func LogHistory(logger *slog.Logger, op string, applied bool, depth, future int) {
	if logger == nil {
		return
	}
	logger.Debug("history",
		slog.String("op", op),
		slog.Bool("applied", applied),
		slog.Int("depth", depth),
		slog.Int("future", future),
	)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
