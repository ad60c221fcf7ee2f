// Package errors classifies faults raised while running a canvas and retries
// transient transport failures.
//
// Every fault belongs to one Category:
//   - CategoryUserInput: missing file, missing CSV, missing column
//   - CategoryTransport: network failures and non-2xx responses
//   - CategoryInvariant: ids that do not resolve, broken graph references
//   - CategoryUnexpected: anything else, including recovered panics
//
// None of these terminate a chain walk. The engine converts them to a
// failed result and the walk stops advancing.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Category is the handling class of an error.
type Category int

const (
	// CategoryUnexpected is the fallback for unclassified errors.
	CategoryUnexpected Category = iota

	// CategoryUserInput indicates the user has not supplied something a
	// runner needs. Reported to the user, never retried.
	CategoryUserInput

	// CategoryTransport indicates a network or remote-endpoint failure.
	// Recovered locally by the caller.
	CategoryTransport

	// CategoryInvariant indicates a reference that should have resolved
	// but did not, such as an unknown node id.
	CategoryInvariant
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryUnexpected:
		return "unexpected"
	case CategoryUserInput:
		return "user_input"
	case CategoryTransport:
		return "transport"
	case CategoryInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category is the handling class.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// UserInput creates a user-input error.
func UserInput(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryUserInput, context)
}

// Transport creates a transport error.
func Transport(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransport, context)
}

// Invariant creates an invariant-violation error.
func Invariant(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryInvariant, context)
}

// Unexpected creates an unexpected error.
func Unexpected(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryUnexpected, context)
}

// Categorize determines the category of err.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnexpected
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return CategoryTransport
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryTransport
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransport
	}

	return CategoryUnexpected
}

// IsRetryable reports whether another attempt might succeed.
// Only transport failures qualify, and of HTTP failures only 429 and 5xx.
// A categorized error is judged by the error it wraps.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

// IsUserInput reports whether err is a user-input error.
func IsUserInput(err error) bool {
	return err != nil && Categorize(err) == CategoryUserInput
}

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool {
	return err != nil && Categorize(err) == CategoryTransport
}
