// Package journal records the steps of every chain walk in a session.
//
// A step is one node run: which node, its kind, and the result it
// produced. The journal is a diagnostic trail for the session, not a way to
// restore a canvas; MemoryStore is the default and SQLiteStore writes the
// same records to a database file.
package journal

import (
	"encoding/json"
	"errors"
	"time"
)

// Step is one node run inside a chain walk.
type Step struct {
	RunID     string          `json:"run_id"`
	NodeID    string          `json:"node_id"`
	Sequence  int             `json:"sequence"`
	Kind      string          `json:"kind"`
	OK        bool            `json:"ok"`
	Msg       string          `json:"msg"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunInfo summarizes a run without loading its steps.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	Steps     int       `json:"steps"`
	StartedAt time.Time `json:"started_at"`
}

// Store persists journal steps.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append records a step. The (RunID, Sequence) pair must be new.
	Append(step Step) error

	// List returns the steps of a run ordered by sequence.
	// Returns an empty slice (not an error) for unknown runs.
	List(runID string) ([]Step, error)

	// Runs summarizes every run, oldest first.
	Runs() ([]RunInfo, error)

	// DeleteRun removes every step of a run.
	// Returns nil if the run has no steps.
	DeleteRun(runID string) error

	// Close releases any resources.
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrDuplicateStep indicates a step with the same run and sequence exists.
	ErrDuplicateStep = errors.New("duplicate journal step")

	// ErrInvalidStep indicates a step without a run id or a positive sequence.
	ErrInvalidStep = errors.New("invalid journal step")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)

func validate(step Step) error {
	if step.RunID == "" || step.Sequence < 1 {
		return ErrInvalidStep
	}
	return nil
}

// Open returns a MemoryStore when path is empty and a SQLiteStore otherwise.
func Open(path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(path)
}
