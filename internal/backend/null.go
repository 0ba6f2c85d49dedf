package backend

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
)

// wakeSource blocks the loop thread until woken or until a timeout.
type wakeSource interface {
	wake() error
	// wait blocks for at most timeout, or forever when timeout is negative.
	// It reports whether a wakeup was consumed.
	wait(timeout time.Duration) (bool, error)
	close() error
}

// Null is a headless native loop. Windows live in memory and events are
// injected by the caller. It is safe to inject from any goroutine.
type Null struct {
	log      *logging.Logger
	monitors []native.Monitor

	// wakeMu guards wake against use after the loop has closed it.
	wakeMu sync.RWMutex
	wake   wakeSource
	closed bool

	mu      sync.Mutex
	pending []native.Event
	windows map[native.WindowID]*memWindow

	woken      atomic.Bool
	running    atomic.Bool
	iterations atomic.Uint64
}

// NullOption configures a Null loop.
type NullOption func(*Null)

// WithNullLogger sets the logger.
func WithNullLogger(l *logging.Logger) NullOption {
	return func(n *Null) {
		if l != nil {
			n.log = l
		}
	}
}

// WithMonitors replaces the default monitor list. The first monitor is
// the primary one.
func WithMonitors(monitors ...native.Monitor) NullOption {
	return func(n *Null) {
		n.monitors = slices.Clone(monitors)
	}
}

// DefaultMonitor is the monitor a Null loop reports unless configured.
var DefaultMonitor = native.Monitor{
	Name:                  "null-0",
	Size:                  native.PhysicalSize{Width: 1920, Height: 1080},
	ScaleFactor:           1,
	RefreshRateMillihertz: 60000,
}

// NewNull creates a headless loop.
func NewNull(opts ...NullOption) (*Null, error) {
	wake, err := newWakeSource()
	if err != nil {
		return nil, err
	}
	n := &Null{
		log:      logging.Default(),
		monitors: []native.Monitor{DefaultMonitor},
		wake:     wake,
		windows:  make(map[native.WindowID]*memWindow),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.WithComponent("backend.null")
	return n, nil
}

// Run drives the loop until the callback requests exit. A Null loop can
// run once.
func (n *Null) Run(fn native.HandlerFunc) error {
	n.wakeMu.RLock()
	closed := n.closed
	n.wakeMu.RUnlock()
	if closed {
		return native.ErrLoopClosed
	}
	if !n.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer n.shutdown()

	var cf native.ControlFlow
	fn(native.NewEvents{Cause: native.StartInit}, n, &cf)
	fn(native.Resumed{}, n, &cf)

	for {
		n.iterations.Add(1)
		if n.woken.Swap(false) {
			fn(native.Wakeup{}, n, &cf)
		}
		for _, ev := range n.take() {
			n.deliver(fn, ev, &cf)
		}
		fn(native.AboutToWait{}, n, &cf)

		if _, exit := cf.ExitCode(); exit {
			break
		}

		cause, err := n.block(&cf)
		if err != nil {
			fn(native.LoopExiting{}, n, &cf)
			return err
		}
		fn(native.NewEvents{Cause: cause}, n, &cf)
	}

	fn(native.LoopExiting{}, n, &cf)
	return nil
}

func (n *Null) block(cf *native.ControlFlow) (native.StartCause, error) {
	if cf.Mode() == native.FlowPoll || n.hasPending() {
		if _, err := n.wake.wait(0); err != nil {
			return 0, err
		}
		return native.StartPoll, nil
	}

	timeout := time.Duration(-1)
	if cf.Mode() == native.FlowWaitUntil {
		timeout = time.Until(cf.Deadline())
		if timeout <= 0 {
			return native.StartResumeTimeReached, nil
		}
	}

	woke, err := n.wake.wait(timeout)
	if err != nil {
		return 0, err
	}
	if !woke {
		return native.StartResumeTimeReached, nil
	}
	return native.StartWaitCancelled, nil
}

// deliver applies the state change an injected window event implies and
// hands the event to fn.
func (n *Null) deliver(fn native.HandlerFunc, ev native.Event, cf *native.ControlFlow) {
	we, ok := ev.(native.WindowEvent)
	if !ok {
		fn(ev, n, cf)
		return
	}

	w := n.window(we.Window)
	if w != nil {
		switch p := we.Payload.(type) {
		case native.Resized:
			w.setInnerSize(p.Size)
		case native.Moved:
			w.setPosition(p.Position)
		case native.Focused:
			w.setFocused(p.Focused)
		}
	}

	fn(ev, n, cf)

	if w == nil {
		return
	}
	switch p := we.Payload.(type) {
	case native.ScaleFactorChanged:
		if size, ok := p.Writer.InnerSize(); ok {
			w.setInnerSize(size)
		}
	case native.Destroyed:
		n.mu.Lock()
		delete(n.windows, we.Window)
		n.mu.Unlock()
		n.log.Debug("window %s destroyed", we.Window)
	}
}

func (n *Null) take() []native.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	evs := n.pending
	n.pending = nil
	return evs
}

func (n *Null) hasPending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending) > 0
}

func (n *Null) window(id native.WindowID) *memWindow {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.windows[id]
}

func (n *Null) shutdown() {
	n.wakeMu.Lock()
	defer n.wakeMu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	if err := n.wake.close(); err != nil {
		n.log.Warn("closing wake source: %v", err)
	}
}

// signal wakes the loop thread, marking it as a proxy wakeup when user is set.
func (n *Null) signal(user bool) error {
	n.wakeMu.RLock()
	defer n.wakeMu.RUnlock()
	if n.closed {
		return native.ErrLoopClosed
	}
	if user {
		n.woken.Store(true)
	}
	return n.wake.wake()
}

// Proxy returns a handle that wakes the loop from any goroutine.
func (n *Null) Proxy() native.Proxy {
	return native.ProxyFunc(func() error {
		return n.signal(true)
	})
}

// Inject queues an event for delivery on the next iteration.
func (n *Null) Inject(ev native.Event) error {
	n.mu.Lock()
	n.pending = append(n.pending, ev)
	n.mu.Unlock()
	return n.signal(false)
}

// InjectWindow queues a window event for id.
func (n *Null) InjectWindow(id native.WindowID, payload native.WindowPayload) error {
	if n.window(id) == nil {
		return fmt.Errorf("inject %T: %w", payload, ErrUnknownWindow)
	}
	return n.Inject(native.WindowEvent{Window: id, Payload: payload})
}

// CloseWindow simulates the user closing a window: CloseRequested is
// delivered, then Destroyed, after which the window is gone.
func (n *Null) CloseWindow(id native.WindowID) error {
	if err := n.InjectWindow(id, native.CloseRequested{}); err != nil {
		return err
	}
	return n.Inject(native.WindowEvent{Window: id, Payload: native.Destroyed{}})
}

// Resize simulates a user resize.
func (n *Null) Resize(id native.WindowID, size native.PhysicalSize) error {
	return n.InjectWindow(id, native.Resized{Size: size})
}

// ChangeScaleFactor simulates a DPI change. The returned writer is the one
// delivered with the event; the size it holds after delivery becomes the
// window's inner size.
func (n *Null) ChangeScaleFactor(id native.WindowID, factor float64) (*native.InnerSizeWriter, error) {
	w := n.window(id)
	if w == nil {
		return nil, fmt.Errorf("change scale factor: %w", ErrUnknownWindow)
	}
	writer := native.NewInnerSizeWriter(w.InnerSize())
	err := n.Inject(native.WindowEvent{
		Window:  id,
		Payload: native.ScaleFactorChanged{ScaleFactor: factor, Writer: writer},
	})
	return writer, err
}

// Windows returns the ids of the live windows.
func (n *Null) Windows() []native.WindowID {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]native.WindowID, 0, len(n.windows))
	for id := range n.windows {
		ids = append(ids, id)
	}
	return ids
}

// Window returns the live window with id.
func (n *Null) Window(id native.WindowID) (native.Window, bool) {
	w := n.window(id)
	if w == nil {
		return nil, false
	}
	return w, true
}

// Iterations returns how many loop iterations have started.
func (n *Null) Iterations() uint64 {
	return n.iterations.Load()
}

// BuildWindow creates an in-memory window on the primary monitor.
func (n *Null) BuildWindow(attrs native.WindowAttributes) (native.Window, error) {
	mon, ok := n.PrimaryMonitor()
	w := newMemWindow(attrs, mon, ok, n.requestRedraw)
	n.mu.Lock()
	n.windows[w.id] = w
	n.mu.Unlock()
	n.log.Debug("built window %s (%s)", w.id, w.inner)
	return w, nil
}

// DestroyWindow drops the window without delivering any events for it.
func (n *Null) DestroyWindow(id native.WindowID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.windows[id]; ok {
		delete(n.windows, id)
		n.log.Debug("window %s dropped", id)
	}
}

func (n *Null) requestRedraw(id native.WindowID) {
	n.mu.Lock()
	n.pending = append(n.pending, native.WindowEvent{Window: id, Payload: native.RedrawRequested{}})
	n.mu.Unlock()
}

// PrimaryMonitor returns the first configured monitor.
func (n *Null) PrimaryMonitor() (native.Monitor, bool) {
	if len(n.monitors) == 0 {
		return native.Monitor{}, false
	}
	return n.monitors[0], true
}

// AvailableMonitors returns every configured monitor.
func (n *Null) AvailableMonitors() []native.Monitor {
	return slices.Clone(n.monitors)
}
