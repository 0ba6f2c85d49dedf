package backend

import (
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
)

// Terminal is a native loop backed by a tcell screen. The screen is the
// loop's only window; its size is measured in cells.
type Terminal struct {
	screen tcell.Screen
	log    *logging.Logger
	tr     *translator

	// Loop-thread state.
	window *termWindow
	redraw bool

	woken   atomic.Bool
	running atomic.Bool
	closed  atomic.Bool
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithScreen uses s instead of the controlling terminal.
func WithScreen(s tcell.Screen) TerminalOption {
	return func(t *Terminal) {
		t.screen = s
	}
}

// WithTerminalLogger sets the logger.
func WithTerminalLogger(l *logging.Logger) TerminalOption {
	return func(t *Terminal) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTerminal creates a terminal loop. The screen is initialized when the
// loop starts running.
func NewTerminal(opts ...TerminalOption) (*Terminal, error) {
	t := &Terminal{
		log: logging.Default(),
		tr:  newTranslator(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, &native.OSError{Op: "open terminal", Err: err}
		}
		t.screen = screen
	}
	t.log = t.log.WithComponent("backend.terminal")
	return t, nil
}

// Run initializes the screen and drives the loop until the callback
// requests exit. The terminal is restored before Run returns.
func (t *Terminal) Run(fn native.HandlerFunc) error {
	if t.closed.Load() {
		return native.ErrLoopClosed
	}
	if !t.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}

	if err := t.screen.Init(); err != nil {
		return &native.OSError{Op: "init screen", Err: err}
	}
	t.screen.EnableMouse()
	t.screen.EnablePaste()
	t.screen.EnableFocus()

	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	pumped := make(chan struct{})
	go t.pump(events, quit, pumped)
	defer func() {
		t.closed.Store(true)
		close(quit)
		t.screen.Fini()
		<-pumped
	}()

	var cf native.ControlFlow
	fn(native.NewEvents{Cause: native.StartInit}, t, &cf)
	fn(native.Resumed{}, t, &cf)

	var held tcell.Event
	for {
		if held != nil {
			t.dispatch(fn, held, &cf)
			held = nil
		}
		t.drain(fn, events, &cf)
		if t.woken.Swap(false) {
			fn(native.Wakeup{}, t, &cf)
		}
		if t.redraw && t.window != nil {
			t.redraw = false
			fn(native.WindowEvent{Window: t.window.id, Payload: native.RedrawRequested{}}, t, &cf)
			t.screen.Show()
		}
		fn(native.AboutToWait{}, t, &cf)

		if _, exit := cf.ExitCode(); exit {
			break
		}

		cause, ev, ok := t.block(events, &cf)
		if !ok {
			t.log.Warn("terminal event stream ended")
			fn(native.LoopExiting{}, t, &cf)
			return native.ErrLoopClosed
		}
		held = ev
		fn(native.NewEvents{Cause: cause}, t, &cf)
	}

	fn(native.LoopExiting{}, t, &cf)
	return nil
}

// pump moves screen events onto a channel so the loop can wait on them
// together with a deadline.
func (t *Terminal) pump(out chan<- tcell.Event, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer close(out)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case out <- ev:
		case <-quit:
			return
		}
	}
}

func (t *Terminal) drain(fn native.HandlerFunc, events <-chan tcell.Event, cf *native.ControlFlow) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.dispatch(fn, ev, cf)
		default:
			return
		}
	}
}

func (t *Terminal) block(events <-chan tcell.Event, cf *native.ControlFlow) (native.StartCause, tcell.Event, bool) {
	if t.redraw {
		return native.StartPoll, nil, true
	}
	switch cf.Mode() {
	case native.FlowPoll:
		return native.StartPoll, nil, true

	case native.FlowWaitUntil:
		d := time.Until(cf.Deadline())
		if d <= 0 {
			return native.StartResumeTimeReached, nil, true
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case ev, ok := <-events:
			return native.StartWaitCancelled, ev, ok
		case <-timer.C:
			return native.StartResumeTimeReached, nil, true
		}

	default:
		ev, ok := <-events
		return native.StartWaitCancelled, ev, ok
	}
}

func (t *Terminal) dispatch(fn native.HandlerFunc, ev tcell.Event, cf *native.ControlFlow) {
	payloads := t.tr.convert(ev)
	w := t.window
	if w == nil || len(payloads) == 0 {
		return
	}
	for _, p := range payloads {
		switch p := p.(type) {
		case native.Resized:
			w.setInnerSize(p.Size)
			t.screen.Sync()
		case native.Focused:
			w.setFocused(p.Focused)
		}
		fn(native.WindowEvent{Window: w.id, Payload: p}, t, cf)
	}
}

// Proxy returns a handle that wakes the loop by posting an interrupt to
// the screen's event queue.
func (t *Terminal) Proxy() native.Proxy {
	return native.ProxyFunc(func() error {
		if t.closed.Load() {
			return native.ErrLoopClosed
		}
		t.woken.Store(true)
		// A full queue already guarantees the loop will wake.
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	})
}

// BuildWindow claims the screen as a window. Only one window can exist.
func (t *Terminal) BuildWindow(attrs native.WindowAttributes) (native.Window, error) {
	if t.window != nil {
		return nil, &native.OSError{Op: "build window", Err: ErrSingleWindow}
	}
	attrs.Decorations = false
	attrs.MinSize, attrs.MaxSize = nil, nil
	w, h := t.screen.Size()
	attrs.InnerSize = &native.PhysicalSize{Width: uint32(w), Height: uint32(h)}

	mon, _ := t.PrimaryMonitor()
	tw := &termWindow{screen: t.screen}
	tw.memWindow = newMemWindow(attrs, mon, true, func(native.WindowID) { t.redraw = true })
	tw.focused = true
	if attrs.Title != "" {
		t.screen.SetTitle(attrs.Title)
	}
	t.window = tw
	t.log.Debug("screen claimed as window %s (%s)", tw.id, tw.inner)
	return tw, nil
}

// DestroyWindow releases the screen so another window can claim it.
func (t *Terminal) DestroyWindow(id native.WindowID) {
	if t.window == nil || t.window.id != id {
		return
	}
	t.window = nil
	t.redraw = false
	t.log.Debug("screen released by window %s", id)
}

// PrimaryMonitor describes the terminal itself.
func (t *Terminal) PrimaryMonitor() (native.Monitor, bool) {
	w, h := t.screen.Size()
	return native.Monitor{
		Name:        "terminal",
		Size:        native.PhysicalSize{Width: uint32(w), Height: uint32(h)},
		ScaleFactor: 1,
	}, true
}

// AvailableMonitors returns the terminal monitor.
func (t *Terminal) AvailableMonitors() []native.Monitor {
	m, _ := t.PrimaryMonitor()
	return []native.Monitor{m}
}

// termWindow forwards the operations a terminal can honour to the screen.
type termWindow struct {
	*memWindow
	screen tcell.Screen
}

func (w *termWindow) SetTitle(title string) {
	w.memWindow.SetTitle(title)
	w.screen.SetTitle(title)
}

func (w *termWindow) SetCursorIcon(icon native.CursorIcon) {
	w.memWindow.SetCursorIcon(icon)
	w.screen.SetCursorStyle(cursorStyle(icon))
}

func (w *termWindow) SetCursorPosition(pos native.PhysicalPosition) error {
	if err := w.memWindow.SetCursorPosition(pos); err != nil {
		return err
	}
	w.syncCursor()
	return nil
}

func (w *termWindow) SetCursorVisible(visible bool) {
	w.memWindow.SetCursorVisible(visible)
	w.syncCursor()
}

func (w *termWindow) syncCursor() {
	w.mu.Lock()
	pos, visible := w.cursorPos, w.cursorVisible
	w.mu.Unlock()
	if visible {
		w.screen.ShowCursor(int(pos.X), int(pos.Y))
	} else {
		w.screen.HideCursor()
	}
}

func (w *termWindow) RequestUserAttention(kind *native.UserAttention) {
	w.memWindow.RequestUserAttention(kind)
	if kind != nil {
		_ = w.screen.Beep() // best-effort; terminal may not support beep
	}
}

// A terminal cannot be moved or resized by the program.
func (w *termWindow) SetOuterPosition(native.PhysicalPosition) {}
func (w *termWindow) SetMinInnerSize(*native.PhysicalSize)     {}
func (w *termWindow) SetMaxInnerSize(*native.PhysicalSize)     {}
