package native

import "errors"

// ErrNotSupported is returned by backends for operations the platform
// cannot perform.
var ErrNotSupported = errors.New("operation not supported by platform")

// OSError is a failure reported by the platform while creating a resource.
type OSError struct {
	// Op names the failed operation (e.g. "build window").
	Op string
	// Err is the underlying platform error.
	Err error
}

// Error implements the error interface.
func (e *OSError) Error() string {
	return "os error during " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *OSError) Unwrap() error {
	return e.Err
}

// ExternalError is a failure reported by the platform for an operation
// on an existing window (cursor grab, drag, hit-test).
type ExternalError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ExternalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExternalError) Unwrap() error {
	return e.Err
}
