package app

import (
	"errors"
	"fmt"
)

// Event loop errors.
var (
	// ErrAlreadyRunning indicates the event loop is already running.
	ErrAlreadyRunning = errors.New("event loop already running")

	// ErrNilMain indicates Run was called without a main task.
	ErrNilMain = errors.New("main task cannot be nil")

	// ErrMainPanicked is matched by the error returned when the main task panics.
	ErrMainPanicked = errors.New("main task panicked")
)

// InitError represents a failure to set up a component before the loop runs.
type InitError struct {
	Component string // Component name (e.g., "backend", "config", "script")
	Err       error  // Underlying error
}

func (e *InitError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("init %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError wraps a panic value raised by the main task.
// The stack is kept out of Error() so it does not end up in user-facing
// messages; log it explicitly where needed.
type RecoveredPanicError struct {
	Value any
	Stack string
}

func (e *RecoveredPanicError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Is matches ErrMainPanicked.
func (e *RecoveredPanicError) Is(target error) bool {
	return target == ErrMainPanicked
}
