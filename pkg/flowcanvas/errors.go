package flowcanvas

import (
	"errors"
	"fmt"
)

// Sentinel errors for chain walks.
var (
	// ErrNoStartNode indicates RunFromStart found no node of kind start.
	ErrNoStartNode = errors.New("no start node")

	// ErrMaxSteps indicates a chain walk hit the step limit.
	ErrMaxSteps = errors.New("exceeded maximum chain steps")
)

// NodeError wraps a runner failure with node context.
type NodeError struct {
	// NodeID is the node that failed.
	NodeID string
	// Kind is the node kind.
	Kind string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a runner.
type PanicError struct {
	// NodeID is the node whose runner panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError reports a chain walk stopped by its context.
type CancellationError struct {
	// NodeID is the node that would have run next.
	NodeID string
	// Steps is how many nodes ran before cancellation.
	Steps int
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before node %s after %d steps: %v", e.NodeID, e.Steps, e.Cause)
}

// Unwrap returns the cancellation cause.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// MaxStepsError reports a chain walk stopped by the step limit.
type MaxStepsError struct {
	// Max is the configured limit.
	Max int
	// LastNodeID is the node that would have run next.
	LastNodeID string
}

// Error implements the error interface.
func (e *MaxStepsError) Error() string {
	return fmt.Sprintf("exceeded maximum chain steps (%d) at node %s", e.Max, e.LastNodeID)
}

// Unwrap returns ErrMaxSteps for errors.Is support.
func (e *MaxStepsError) Unwrap() error {
	return ErrMaxSteps
}
