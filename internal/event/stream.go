package event

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// StreamState represents the state of a stream.
type StreamState int32

const (
	// StreamActive means the stream is receiving occurrences.
	StreamActive StreamState = iota

	// StreamPaused means occurrences are discarded until Resume.
	StreamPaused

	// StreamClosed means the stream has been detached from its handler.
	StreamClosed
)

// String returns a human-readable state name.
func (s StreamState) String() string {
	switch s {
	case StreamActive:
		return "active"
	case StreamPaused:
		return "paused"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream is a FIFO of occurrences received from a Handler.
// A single goroutine is expected to consume it.
type Stream[C any] struct {
	filter  func(C) bool
	backlog int
	detach  func()

	state   atomic.Int32
	dropped atomic.Uint64

	mu     sync.Mutex
	box    *queue.Queue
	notify chan struct{}
}

func newStream[C any](cfg streamConfig[C]) *Stream[C] {
	s := &Stream[C]{
		filter:  cfg.filter,
		backlog: cfg.backlog,
		box:     queue.New(),
		notify:  make(chan struct{}, 1),
	}
	if cfg.paused {
		s.state.Store(int32(StreamPaused))
	}
	return s
}

func (s *Stream[C]) wants() bool {
	return s.State() == StreamActive
}

func (s *Stream[C]) push(v C) {
	if s.filter != nil && !s.filter(v) {
		return
	}

	s.mu.Lock()
	if s.State() == StreamClosed {
		s.mu.Unlock()
		return
	}
	if s.backlog > 0 && s.box.Length() >= s.backlog {
		s.box.Remove()
		s.dropped.Add(1)
	}
	s.box.Add(v)
	s.mu.Unlock()

	s.wake()
}

func (s *Stream[C]) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// TryNext returns the oldest queued occurrence without blocking.
func (s *Stream[C]) TryNext() (C, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.box.Length() == 0 {
		var zero C
		return zero, false
	}
	return s.box.Remove().(C), true
}

// Next blocks until an occurrence is available. Occurrences queued before
// Close are still returned; after that Next returns ErrStreamClosed.
func (s *Stream[C]) Next(ctx context.Context) (C, error) {
	for {
		if v, ok := s.TryNext(); ok {
			return v, nil
		}
		if s.State() == StreamClosed {
			var zero C
			return zero, ErrStreamClosed
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			var zero C
			return zero, ctx.Err()
		}
	}
}

// All returns an iterator over occurrences. Iteration ends when ctx is
// done or the stream is closed and drained.
func (s *Stream[C]) All(ctx context.Context) iter.Seq[C] {
	return func(yield func(C) bool) {
		for {
			v, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of queued occurrences.
func (s *Stream[C]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.box.Length()
}

// Dropped returns how many occurrences were discarded by the backlog cap.
func (s *Stream[C]) Dropped() uint64 {
	return s.dropped.Load()
}

// State returns the current stream state.
func (s *Stream[C]) State() StreamState {
	return StreamState(s.state.Load())
}

// Pause discards occurrences until Resume is called.
func (s *Stream[C]) Pause() {
	s.state.CompareAndSwap(int32(StreamActive), int32(StreamPaused))
}

// Resume restarts delivery after a pause.
func (s *Stream[C]) Resume() {
	s.state.CompareAndSwap(int32(StreamPaused), int32(StreamActive))
}

// Close detaches the stream from its handler. It is safe to call more
// than once and concurrently with a broadcast.
func (s *Stream[C]) Close() {
	s.mu.Lock()
	prev := StreamState(s.state.Swap(int32(StreamClosed)))
	s.mu.Unlock()
	if prev == StreamClosed {
		return
	}
	if s.detach != nil {
		s.detach()
	}
	s.wake()
}
