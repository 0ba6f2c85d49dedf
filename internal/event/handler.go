package event

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

type listenerKind int

const (
	kindHook listenerKind = iota
	kindOnce
	kindStream
)

// listener is one registered observer of a Handler.
type listener[C any] struct {
	id     uint64
	kind   listenerKind
	hook   func(C, any)
	once   chan C
	stream *Stream[C]
}

type interceptor[U any] struct {
	id uint64
	fn func(*U, any)
}

// Stats holds broadcast counters for a Handler.
type Stats struct {
	Broadcasts uint64
	Delivered  uint64
	Panics     uint64
}

// Handler broadcasts occurrences of one event kind. U is the unique view
// of the payload, C the clonable view produced by the downgrade function.
// A Handler is safe for concurrent use.
type Handler[U, C any] struct {
	downgrade func(*U) C

	mu          sync.Mutex
	interceptor *interceptor[U]
	listeners   []*listener[C]
	nextID      uint64

	broadcasts atomic.Uint64
	delivered  atomic.Uint64
	panics     atomic.Uint64
}

// NewHandler creates a handler for a payload type whose unique and
// clonable views coincide; listeners receive copies of the value.
func NewHandler[T any]() *Handler[T, T] {
	return NewUniqueHandler(func(u *T) T { return *u })
}

// NewUniqueHandler creates a handler whose listeners other than the
// interceptor receive downgrade(u).
func NewUniqueHandler[U, C any](downgrade func(*U) C) *Handler[U, C] {
	if downgrade == nil {
		panic("event: nil downgrade function")
	}
	return &Handler[U, C]{downgrade: downgrade}
}

// Intercept installs the handler's single interceptor, which receives the
// unique view ahead of every other listener. The returned function
// uninstalls it.
func (h *Handler[U, C]) Intercept(fn func(u *U, data any)) (func(), error) {
	if fn == nil {
		return nil, ErrNilCallback
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.interceptor != nil {
		return nil, ErrAlreadyIntercepted
	}
	h.nextID++
	ic := &interceptor[U]{id: h.nextID, fn: fn}
	h.interceptor = ic

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.interceptor == ic {
			h.interceptor = nil
		}
	}, nil
}

// Hook registers a callback run synchronously for every occurrence.
// The returned function unregisters it.
func (h *Handler[U, C]) Hook(fn func(c C, data any)) (func(), error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	l := h.add(&listener[C]{kind: kindHook, hook: fn})
	return func() { h.remove(l) }, nil
}

// Wait blocks until the next occurrence and returns its clonable view.
// Occurrences broadcast before Wait registers are not observed.
func (h *Handler[U, C]) Wait(ctx context.Context) (C, error) {
	l := h.add(&listener[C]{kind: kindOnce, once: make(chan C, 1)})

	select {
	case v := <-l.once:
		return v, nil
	case <-ctx.Done():
		h.remove(l)
		select {
		case v := <-l.once:
			return v, nil
		default:
		}
		var zero C
		return zero, ctx.Err()
	}
}

// Subscribe returns a stream receiving every later occurrence until it is
// closed.
func (h *Handler[U, C]) Subscribe(opts ...StreamOption[C]) *Stream[C] {
	cfg := defaultStreamConfig[C]()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := newStream(cfg)
	l := h.add(&listener[C]{kind: kindStream, stream: s})
	s.detach = func() { h.remove(l) }
	return s
}

// RunWith broadcasts one occurrence to every listener registered when the
// call begins. It returns once hooks have run and every waiter and stream
// has the occurrence queued. Panics from the interceptor or hooks are
// recovered and returned joined together.
func (h *Handler[U, C]) RunWith(u *U, data any) error {
	h.mu.Lock()
	ic := h.interceptor
	if ic == nil && len(h.listeners) == 0 {
		h.mu.Unlock()
		h.broadcasts.Add(1)
		return nil
	}
	snapshot := make([]*listener[C], len(h.listeners))
	copy(snapshot, h.listeners)

	// One-shot waiters leave the set as part of this broadcast.
	kept := h.listeners[:0]
	for _, l := range h.listeners {
		if l.kind != kindOnce {
			kept = append(kept, l)
		}
	}
	clear(h.listeners[len(kept):])
	h.listeners = kept
	h.mu.Unlock()

	h.broadcasts.Add(1)

	var errs []error
	if ic != nil {
		if err := h.guard(ic.id, func() { ic.fn(u, data) }); err != nil {
			errs = append(errs, err)
		}
		h.delivered.Add(1)
	}
	for _, l := range snapshot {
		if err := h.guard(l.id, func() { h.deliver(l, u, data) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run broadcasts a value that needs no unique handling.
func (h *Handler[U, C]) Run(u U, data any) error {
	return h.RunWith(&u, data)
}

func (h *Handler[U, C]) deliver(l *listener[C], u *U, data any) {
	switch l.kind {
	case kindHook:
		l.hook(h.downgrade(u), data)
	case kindOnce:
		l.once <- h.downgrade(u)
	case kindStream:
		if !l.stream.wants() {
			return
		}
		l.stream.push(h.downgrade(u))
	}
	h.delivered.Add(1)
}

func (h *Handler[U, C]) guard(id uint64, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.panics.Add(1)
			err = &PanicError{Listener: id, Value: r, Stack: string(debug.Stack())}
		}
	}()
	fn()
	return nil
}

func (h *Handler[U, C]) add(l *listener[C]) *listener[C] {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	l.id = h.nextID
	h.listeners = append(h.listeners, l)
	return l
}

func (h *Handler[U, C]) remove(l *listener[C]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, cur := range h.listeners {
		if cur == l {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners, the interceptor included.
func (h *Handler[U, C]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.listeners)
	if h.interceptor != nil {
		n++
	}
	return n
}

// Stats returns a snapshot of the handler's counters.
func (h *Handler[U, C]) Stats() Stats {
	return Stats{
		Broadcasts: h.broadcasts.Load(),
		Delivered:  h.delivered.Load(),
		Panics:     h.panics.Load(),
	}
}
