// Package oneshot provides a single-delivery completion channel.
//
// A completion channel connects exactly one producer (usually the native
// loop goroutine running a queued operation) with exactly one consumer
// (the task that requested the operation). The value is delivered at most
// once; delivering twice is a programming error and panics.
package oneshot

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrAlreadySent is the panic value used when a completion is sent twice.
var ErrAlreadySent = errors.New("oneshot: value already sent")

type state[T any] struct {
	sent  atomic.Bool
	done  chan struct{}
	value T
}

// Sender is the producing half of a completion channel.
type Sender[T any] struct {
	s *state[T]
}

// Receiver is the consuming half of a completion channel.
type Receiver[T any] struct {
	s *state[T]
}

// New creates a linked Sender/Receiver pair.
func New[T any]() (*Sender[T], *Receiver[T]) {
	s := &state[T]{done: make(chan struct{})}
	return &Sender[T]{s: s}, &Receiver[T]{s: s}
}

// Send delivers v to the receiver and wakes it.
// Calling Send more than once panics with ErrAlreadySent.
func (tx *Sender[T]) Send(v T) {
	if !tx.s.sent.CompareAndSwap(false, true) {
		panic(ErrAlreadySent)
	}
	tx.s.value = v
	close(tx.s.done)
}

// Sent reports whether a value has been delivered.
func (tx *Sender[T]) Sent() bool {
	return tx.s.sent.Load()
}

// Recv blocks until the value is delivered or ctx is done.
func (rx *Receiver[T]) Recv(ctx context.Context) (T, error) {
	select {
	case <-rx.s.done:
		return rx.s.value, nil
	default:
	}

	select {
	case <-rx.s.done:
		return rx.s.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryRecv returns the value if it has already been delivered.
func (rx *Receiver[T]) TryRecv() (T, bool) {
	select {
	case <-rx.s.done:
		return rx.s.value, true
	default:
		var zero T
		return zero, false
	}
}

// Done returns a channel that is closed once the value is delivered.
func (rx *Receiver[T]) Done() <-chan struct{} {
	return rx.s.done
}
