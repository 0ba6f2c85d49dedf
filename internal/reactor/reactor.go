// Package reactor is the coordination point between the native event loop
// and the goroutines waiting on it.
//
// A Reactor owns the timer wheel, the queue of operations the loop must run
// on its own thread, the registry of live windows and the exit state. It is
// created once by the program entry point and passed to every component that
// needs it; there is no package-level instance.
package reactor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/btree"

	"github.com/dshills/asyncwin/internal/event"
	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/window"
)

// Default queue capacities.
const (
	DefaultOpQueueCapacity    = 1024
	DefaultTimerQueueCapacity = 1024
)

// Lifecycle holds the handlers for application-wide events.
type Lifecycle struct {
	Resumed   *event.Handler[struct{}, struct{}]
	Suspended *event.Handler[struct{}, struct{}]
}

// Stats holds reactor counters.
type Stats struct {
	EventsPosted  uint64
	EventsDropped uint64
	Windows       int
	Timers        int
	// TimerOpsStaged counts timer inserts and removals not yet applied
	// to the wheel.
	TimerOpsStaged int
	OpsQueued      int
}

// Reactor coordinates timers, window registrations and loop operations.
type Reactor struct {
	log   *logging.Logger
	clock Clock

	exit atomic.Pointer[exitState]

	ops    chan Op
	closed chan struct{}
	once   sync.Once

	windowsMu sync.Mutex
	windows   map[native.WindowID]*window.Registration

	proxy atomic.Pointer[native.Proxy]

	timersMu sync.Mutex
	timers   *btree.BTreeG[timerEntry]
	staging  *ring[timerOp]
	timerID  atomic.Uint64

	lifecycle Lifecycle

	posted  atomic.Uint64
	dropped atomic.Uint64
}

// Option configures a Reactor.
type Option func(*options)

type options struct {
	opQueue    int
	timerQueue int
	clock      Clock
	logger     *logging.Logger
}

// WithOpQueueCapacity sets the capacity of the loop operation queue.
func WithOpQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.opQueue = n
		}
	}
}

// WithTimerQueueCapacity sets the capacity of the timer staging queue.
func WithTimerQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.timerQueue = n
		}
	}
}

// WithClock replaces the clock used to decide which timers are due.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a Reactor.
func New(opts ...Option) *Reactor {
	o := options{
		opQueue:    DefaultOpQueueCapacity,
		timerQueue: DefaultTimerQueueCapacity,
		clock:      SystemClock,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Default()
	}

	return &Reactor{
		log:     o.logger.WithComponent("reactor"),
		clock:   o.clock,
		ops:     make(chan Op, o.opQueue),
		closed:  make(chan struct{}),
		windows: make(map[native.WindowID]*window.Registration),
		timers:  newWheel(),
		staging: newRing[timerOp](o.timerQueue),
		lifecycle: Lifecycle{
			Resumed:   event.NewHandler[struct{}](),
			Suspended: event.NewHandler[struct{}](),
		},
	}
}

// Now returns the reactor clock's current instant.
func (r *Reactor) Now() time.Time {
	return r.clock.Now()
}

// SetProxy installs the handle used to wake the native loop. Only the first
// call has an effect.
func (r *Reactor) SetProxy(p native.Proxy) {
	if p == nil {
		return
	}
	r.proxy.CompareAndSwap(nil, &p)
}

// Notify wakes the native loop if a proxy has been installed.
func (r *Reactor) Notify() {
	p := r.proxy.Load()
	if p == nil {
		return
	}
	if err := (*p).Wakeup(); err != nil {
		r.log.Debug("wakeup failed: %v", err)
	}
}

// Shutdown permanently closes the operation queue. Later pushes panic with
// ErrQueueClosed unless their context is already done.
func (r *Reactor) Shutdown() {
	r.once.Do(func() { close(r.closed) })
}

// Lifecycle returns the handlers for resumed and suspended events.
func (r *Reactor) Lifecycle() *Lifecycle {
	return &r.lifecycle
}

// InsertWindow creates and stores a registration for id, replacing any
// previous one, and returns it.
func (r *Reactor) InsertWindow(id native.WindowID) *window.Registration {
	reg := window.NewRegistration(id)

	r.windowsMu.Lock()
	r.windows[id] = reg
	r.windowsMu.Unlock()

	r.log.Debug("inserted window %s", id)
	return reg
}

// RemoveWindow drops the registration for id. Tasks still holding it keep
// their subscriptions but receive no further events.
func (r *Reactor) RemoveWindow(id native.WindowID) {
	r.windowsMu.Lock()
	delete(r.windows, id)
	r.windowsMu.Unlock()

	r.log.Debug("removed window %s", id)
}

// Window returns the registration for id.
func (r *Reactor) Window(id native.WindowID) (*window.Registration, bool) {
	r.windowsMu.Lock()
	defer r.windowsMu.Unlock()
	reg, ok := r.windows[id]
	return reg, ok
}

// WindowCount returns the number of registered windows.
func (r *Reactor) WindowCount() int {
	r.windowsMu.Lock()
	defer r.windowsMu.Unlock()
	return len(r.windows)
}

// PostEvent routes a native event into the handler network. Events for
// unregistered windows are dropped without error. A window's registration
// is removed once its Destroyed event has been broadcast. Events other
// than window events, Resumed and Suspended are ignored.
func (r *Reactor) PostEvent(ev native.Event, data any) error {
	switch e := ev.(type) {
	case native.WindowEvent:
		reg, ok := r.Window(e.Window)
		if !ok {
			r.dropped.Add(1)
			return nil
		}
		r.posted.Add(1)
		err := reg.Signal(e.Payload, data)
		if _, destroyed := e.Payload.(native.Destroyed); destroyed {
			r.RemoveWindow(e.Window)
		}
		return err

	case native.Resumed:
		r.posted.Add(1)
		return r.lifecycle.Resumed.Run(struct{}{}, data)

	case native.Suspended:
		r.posted.Add(1)
		return r.lifecycle.Suspended.Run(struct{}{}, data)
	}
	return nil
}

// Stats returns a snapshot of the reactor counters.
func (r *Reactor) Stats() Stats {
	return Stats{
		EventsPosted:   r.posted.Load(),
		EventsDropped:  r.dropped.Load(),
		Windows:        r.WindowCount(),
		Timers:         r.TimerCount(),
		TimerOpsStaged: r.staging.Len(),
		OpsQueued:      r.OpsLen(),
	}
}
