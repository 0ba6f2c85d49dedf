package native

import (
	"errors"
	"time"
)

// ErrLoopClosed is returned by a Proxy whose loop has already exited.
var ErrLoopClosed = errors.New("event loop closed")

// HandlerFunc is the callback a Loop invokes for every event.
// It runs on the loop thread and must not block.
type HandlerFunc func(ev Event, target Target, cf *ControlFlow)

// Loop is a callback-driven native event loop.
type Loop interface {
	// Run drives the loop until the callback requests exit through the
	// ControlFlow. It must be called from the thread that created the loop.
	Run(fn HandlerFunc) error
	// Proxy returns a handle other goroutines use to wake the loop.
	Proxy() Proxy
}

// Proxy wakes a Loop blocked waiting for events. A woken loop delivers a
// Wakeup event followed by AboutToWait.
type Proxy interface {
	Wakeup() error
}

// ProxyFunc adapts a function to Proxy.
type ProxyFunc func() error

// Wakeup calls f.
func (f ProxyFunc) Wakeup() error { return f() }

// FlowMode is how the loop behaves once it runs out of events.
type FlowMode int

const (
	// FlowWait blocks until the next event.
	FlowWait FlowMode = iota
	// FlowPoll starts another iteration immediately.
	FlowPoll
	// FlowWaitUntil blocks until the next event or the deadline.
	FlowWaitUntil
	// FlowExit stops the loop.
	FlowExit
)

// String returns the mode name.
func (m FlowMode) String() string {
	switch m {
	case FlowWait:
		return "wait"
	case FlowPoll:
		return "poll"
	case FlowWaitUntil:
		return "wait-until"
	case FlowExit:
		return "exit"
	default:
		return "unknown"
	}
}

// ControlFlow is written by the loop callback to steer the next iteration.
// Once exit has been requested further changes are ignored.
type ControlFlow struct {
	mode     FlowMode
	deadline time.Time
	code     int
}

// SetWait makes the loop block until the next event.
func (cf *ControlFlow) SetWait() {
	if cf.mode != FlowExit {
		cf.mode = FlowWait
	}
}

// SetPoll makes the loop run another iteration without blocking.
func (cf *ControlFlow) SetPoll() {
	if cf.mode != FlowExit {
		cf.mode = FlowPoll
	}
}

// SetWaitUntil makes the loop block until t at the latest.
func (cf *ControlFlow) SetWaitUntil(t time.Time) {
	if cf.mode != FlowExit {
		cf.mode = FlowWaitUntil
		cf.deadline = t
	}
}

// SetExit stops the loop with the given code.
func (cf *ControlFlow) SetExit(code int) {
	if cf.mode != FlowExit {
		cf.mode = FlowExit
		cf.code = code
	}
}

// Mode returns the requested mode.
func (cf *ControlFlow) Mode() FlowMode { return cf.mode }

// Deadline returns the wait-until deadline.
func (cf *ControlFlow) Deadline() time.Time { return cf.deadline }

// ExitCode returns the exit code and whether exit was requested.
func (cf *ControlFlow) ExitCode() (int, bool) {
	return cf.code, cf.mode == FlowExit
}
