package reactor

import (
	"context"
	"errors"

	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/oneshot"
)

// ErrQueueClosed is the panic value raised when an operation is pushed
// after the reactor has been shut down.
var ErrQueueClosed = errors.New("event loop operation queue closed")

// OpKind identifies a deferred native-loop operation.
type OpKind int

const (
	OpBuildWindow OpKind = iota
	OpPrimaryMonitor
	OpAvailableMonitors
	OpCurrentMonitor
	OpInnerPosition
	OpOuterPosition
	OpSetOuterPosition
	OpInnerSize
	OpOuterSize
	OpSetMinInnerSize
	OpSetMaxInnerSize
	OpResizeIncrements
	OpSetResizeIncrements
	OpTitle
	OpSetTitle
	OpSetWindowIcon
	OpDecorated
	OpSetDecorations
	OpSetTransparent
	OpResizable
	OpSetResizable
	OpVisible
	OpSetVisible
	OpMinimized
	OpSetMinimized
	OpMaximized
	OpSetMaximized
	OpFullscreen
	OpSetFullscreen
	OpSetWindowLevel
	OpTheme
	OpSetTheme
	OpSetContentProtected
	OpSetImeCursorArea
	OpSetImeAllowed
	OpSetImePurpose
	OpFocusWindow
	OpHasFocus
	OpRequestUserAttention
	OpRequestRedraw
	OpSetCursorIcon
	OpSetCursorPosition
	OpSetCursorGrab
	OpSetCursorVisible
	OpSetCursorHitTest
	OpDragWindow
	OpDragResizeWindow
)

var opNames = [...]string{
	OpBuildWindow:          "BuildWindow",
	OpPrimaryMonitor:       "PrimaryMonitor",
	OpAvailableMonitors:    "AvailableMonitors",
	OpCurrentMonitor:       "CurrentMonitor",
	OpInnerPosition:        "InnerPosition",
	OpOuterPosition:        "OuterPosition",
	OpSetOuterPosition:     "SetOuterPosition",
	OpInnerSize:            "InnerSize",
	OpOuterSize:            "OuterSize",
	OpSetMinInnerSize:      "SetMinInnerSize",
	OpSetMaxInnerSize:      "SetMaxInnerSize",
	OpResizeIncrements:     "ResizeIncrements",
	OpSetResizeIncrements:  "SetResizeIncrements",
	OpTitle:                "Title",
	OpSetTitle:             "SetTitle",
	OpSetWindowIcon:        "SetWindowIcon",
	OpDecorated:            "Decorated",
	OpSetDecorations:       "SetDecorations",
	OpSetTransparent:       "SetTransparent",
	OpResizable:            "Resizable",
	OpSetResizable:         "SetResizable",
	OpVisible:              "Visible",
	OpSetVisible:           "SetVisible",
	OpMinimized:            "Minimized",
	OpSetMinimized:         "SetMinimized",
	OpMaximized:            "Maximized",
	OpSetMaximized:         "SetMaximized",
	OpFullscreen:           "Fullscreen",
	OpSetFullscreen:        "SetFullscreen",
	OpSetWindowLevel:       "SetWindowLevel",
	OpTheme:                "Theme",
	OpSetTheme:             "SetTheme",
	OpSetContentProtected:  "SetContentProtected",
	OpSetImeCursorArea:     "SetImeCursorArea",
	OpSetImeAllowed:        "SetImeAllowed",
	OpSetImePurpose:        "SetImePurpose",
	OpFocusWindow:          "FocusWindow",
	OpHasFocus:             "HasFocus",
	OpRequestUserAttention: "RequestUserAttention",
	OpRequestRedraw:        "RequestRedraw",
	OpSetCursorIcon:        "SetCursorIcon",
	OpSetCursorPosition:    "SetCursorPosition",
	OpSetCursorGrab:        "SetCursorGrab",
	OpSetCursorVisible:     "SetCursorVisible",
	OpSetCursorHitTest:     "SetCursorHitTest",
	OpDragWindow:           "DragWindow",
	OpDragResizeWindow:     "DragResizeWindow",
}

// String returns the operation name.
func (k OpKind) String() string {
	if k >= 0 && int(k) < len(opNames) {
		return opNames[k]
	}
	return "Unknown"
}

// Op is a deferred action run on the native loop thread. Its result, if
// any, is delivered through a completion channel captured by run.
type Op struct {
	Kind OpKind
	run  func(native.Target)
}

// NewOp creates an operation of the given kind.
func NewOp(kind OpKind, run func(native.Target)) Op {
	return Op{Kind: kind, run: run}
}

// Run executes the operation against the loop target.
func (op Op) Run(target native.Target) {
	if op.run != nil {
		op.run(target)
	}
}

// PushEventLoopOp enqueues op, blocking while the queue is full, then wakes
// the native loop. It returns ctx.Err() if ctx ends first. Pushing after
// Shutdown is a programming error and panics with ErrQueueClosed.
func (r *Reactor) PushEventLoopOp(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-r.closed:
		panic(ErrQueueClosed)
	default:
	}

	select {
	case r.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.closed:
		if err := ctx.Err(); err != nil {
			return err
		}
		panic(ErrQueueClosed)
	}

	r.Notify()
	return nil
}

// DrainLoopQueue runs pending operations in FIFO order against target and
// returns how many ran. At most one queue's capacity of operations runs
// per call; the rest wait for the next iteration.
func (r *Reactor) DrainLoopQueue(target native.Target) int {
	n := 0
	for range cap(r.ops) {
		select {
		case op := <-r.ops:
			op.Run(target)
			n++
		default:
			return n
		}
	}
	return n
}

// OpsLen returns the number of operations waiting to be drained.
func (r *Reactor) OpsLen() int {
	return len(r.ops)
}

// Call runs fn on the native loop thread and returns its result. It blocks
// until the loop has drained the operation or ctx ends.
func Call[T any](ctx context.Context, r *Reactor, kind OpKind, fn func(native.Target) T) (T, error) {
	tx, rx := oneshot.New[T]()
	op := NewOp(kind, func(t native.Target) {
		tx.Send(fn(t))
	})
	if err := r.PushEventLoopOp(ctx, op); err != nil {
		var zero T
		return zero, err
	}
	return rx.Recv(ctx)
}
