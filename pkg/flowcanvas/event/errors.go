package event

import (
	"errors"
	"fmt"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// HandlerError reports a handler that returned an error or panicked.
type HandlerError struct {
	Event Event
	// Index is the handler's position in the topic's subscription order.
	Index int
	Err   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("event %s (%s) handler %d: %v", e.Event.ID, e.Event.Topic, e.Index, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError is a recovered handler panic.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}
