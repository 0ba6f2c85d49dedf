package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for handlers and streams.
var (
	// ErrAlreadyIntercepted is returned when a second interceptor is installed.
	ErrAlreadyIntercepted = errors.New("handler already has an interceptor")

	// ErrStreamClosed is returned by Next once a stream has been closed and drained.
	ErrStreamClosed = errors.New("stream closed")

	// ErrListenerPanic is matched by every PanicError.
	ErrListenerPanic = errors.New("listener panicked")

	// ErrNilCallback is returned when a nil callback is registered.
	ErrNilCallback = errors.New("callback cannot be nil")
)

// PanicError wraps a panic raised by an interceptor or hook.
type PanicError struct {
	// Listener is the id of the listener that panicked.
	Listener uint64

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener %d panicked: %v", e.Listener, e.Value)
}

// Is allows errors.Is to match PanicError with ErrListenerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrListenerPanic
}
