package app

import (
	"context"
	"sync"

	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/reactor"
	"github.com/dshills/asyncwin/internal/window"
)

// Window is a goroutine-safe handle to a native window. Every method
// runs on the loop thread and blocks until it has, or until ctx ends.
// Errors reported by the platform are returned unchanged.
type Window struct {
	r      *reactor.Reactor
	native native.Window
	reg    *window.Registration
}

// CreateWindow builds a native window and registers it with the reactor
// before returning, so handlers on the returned window see every event
// the window produces.
func (el *EventLoop) CreateWindow(ctx context.Context, attrs native.WindowAttributes) (*Window, error) {
	type built struct {
		w   native.Window
		reg *window.Registration
		err error
	}

	// The op may run after the caller gave up waiting. Whichever side takes
	// mu first decides: an abandoned request destroys the window, a built
	// one is returned even if ctx ended meanwhile.
	var (
		mu        sync.Mutex
		abandoned bool
		kept      built
	)
	res, err := reactor.Call(ctx, el.reactor, reactor.OpBuildWindow, func(t native.Target) built {
		w, err := t.BuildWindow(attrs)
		if err != nil {
			return built{err: err}
		}
		mu.Lock()
		defer mu.Unlock()
		if abandoned {
			t.DestroyWindow(w.ID())
			el.log.Debug("dropped window %s: request abandoned", w.ID())
			return built{err: context.Canceled}
		}
		kept = built{w: w, reg: el.reactor.InsertWindow(w.ID())}
		return kept
	})
	if err != nil {
		mu.Lock()
		abandoned = true
		res = kept
		mu.Unlock()
		if res.w == nil {
			return nil, err
		}
	}
	if res.err != nil {
		return nil, res.err
	}
	el.log.Debug("created window %s", res.w.ID())
	return &Window{r: el.reactor, native: res.w, reg: res.reg}, nil
}

// PrimaryMonitor returns the system's primary monitor, if it has one.
func (el *EventLoop) PrimaryMonitor(ctx context.Context) (native.Monitor, bool, error) {
	type primary struct {
		m  native.Monitor
		ok bool
	}
	res, err := reactor.Call(ctx, el.reactor, reactor.OpPrimaryMonitor, func(t native.Target) primary {
		m, ok := t.PrimaryMonitor()
		return primary{m, ok}
	})
	return res.m, res.ok, err
}

// AvailableMonitors lists every connected monitor.
func (el *EventLoop) AvailableMonitors(ctx context.Context) ([]native.Monitor, error) {
	return reactor.Call(ctx, el.reactor, reactor.OpAvailableMonitors, func(t native.Target) []native.Monitor {
		return t.AvailableMonitors()
	})
}

// ID returns the window identity.
func (w *Window) ID() native.WindowID {
	return w.native.ID()
}

// Events returns the window's event handlers.
func (w *Window) Events() *window.Registration {
	return w.reg
}

type result[T any] struct {
	v   T
	err error
}

func call[T any](ctx context.Context, w *Window, kind reactor.OpKind, fn func(native.Window) T) (T, error) {
	return reactor.Call(ctx, w.r, kind, func(native.Target) T {
		return fn(w.native)
	})
}

func callErr[T any](ctx context.Context, w *Window, kind reactor.OpKind, fn func(native.Window) (T, error)) (T, error) {
	res, err := call(ctx, w, kind, func(nw native.Window) result[T] {
		v, err := fn(nw)
		return result[T]{v, err}
	})
	if err != nil {
		return res.v, err
	}
	return res.v, res.err
}

func do(ctx context.Context, w *Window, kind reactor.OpKind, fn func(native.Window)) error {
	_, err := call(ctx, w, kind, func(nw native.Window) struct{} {
		fn(nw)
		return struct{}{}
	})
	return err
}

func doErr(ctx context.Context, w *Window, kind reactor.OpKind, fn func(native.Window) error) error {
	_, err := callErr(ctx, w, kind, func(nw native.Window) (struct{}, error) {
		return struct{}{}, fn(nw)
	})
	return err
}

// InnerPosition returns the position of the client area.
func (w *Window) InnerPosition(ctx context.Context) (native.PhysicalPosition, error) {
	return callErr(ctx, w, reactor.OpInnerPosition, native.Window.InnerPosition)
}

// OuterPosition returns the position of the window frame.
func (w *Window) OuterPosition(ctx context.Context) (native.PhysicalPosition, error) {
	return callErr(ctx, w, reactor.OpOuterPosition, native.Window.OuterPosition)
}

// SetOuterPosition moves the window frame.
func (w *Window) SetOuterPosition(ctx context.Context, pos native.PhysicalPosition) error {
	return do(ctx, w, reactor.OpSetOuterPosition, func(nw native.Window) { nw.SetOuterPosition(pos) })
}

// InnerSize returns the size of the client area.
func (w *Window) InnerSize(ctx context.Context) (native.PhysicalSize, error) {
	return call(ctx, w, reactor.OpInnerSize, native.Window.InnerSize)
}

// OuterSize returns the size of the window frame.
func (w *Window) OuterSize(ctx context.Context) (native.PhysicalSize, error) {
	return call(ctx, w, reactor.OpOuterSize, native.Window.OuterSize)
}

// SetMinInnerSize sets the minimum client size; nil removes the limit.
func (w *Window) SetMinInnerSize(ctx context.Context, size *native.PhysicalSize) error {
	return do(ctx, w, reactor.OpSetMinInnerSize, func(nw native.Window) { nw.SetMinInnerSize(size) })
}

// SetMaxInnerSize sets the maximum client size; nil removes the limit.
func (w *Window) SetMaxInnerSize(ctx context.Context, size *native.PhysicalSize) error {
	return do(ctx, w, reactor.OpSetMaxInnerSize, func(nw native.Window) { nw.SetMaxInnerSize(size) })
}

// ResizeIncrements returns the resize step, if one is set.
func (w *Window) ResizeIncrements(ctx context.Context) (*native.PhysicalSize, error) {
	return call(ctx, w, reactor.OpResizeIncrements, native.Window.ResizeIncrements)
}

// SetResizeIncrements sets the resize step; nil removes it.
func (w *Window) SetResizeIncrements(ctx context.Context, size *native.PhysicalSize) error {
	return do(ctx, w, reactor.OpSetResizeIncrements, func(nw native.Window) { nw.SetResizeIncrements(size) })
}

// Title returns the window title.
func (w *Window) Title(ctx context.Context) (string, error) {
	return call(ctx, w, reactor.OpTitle, native.Window.Title)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(ctx context.Context, title string) error {
	return do(ctx, w, reactor.OpSetTitle, func(nw native.Window) { nw.SetTitle(title) })
}

// SetWindowIcon sets the window icon; nil restores the default.
func (w *Window) SetWindowIcon(ctx context.Context, icon *native.Icon) error {
	return do(ctx, w, reactor.OpSetWindowIcon, func(nw native.Window) { nw.SetWindowIcon(icon) })
}

// Decorated reports whether the window has decorations.
func (w *Window) Decorated(ctx context.Context) (bool, error) {
	return call(ctx, w, reactor.OpDecorated, native.Window.Decorated)
}

// SetDecorations turns window decorations on or off.
func (w *Window) SetDecorations(ctx context.Context, decorated bool) error {
	return do(ctx, w, reactor.OpSetDecorations, func(nw native.Window) { nw.SetDecorations(decorated) })
}

// SetTransparent sets whether the background is transparent.
func (w *Window) SetTransparent(ctx context.Context, transparent bool) error {
	return do(ctx, w, reactor.OpSetTransparent, func(nw native.Window) { nw.SetTransparent(transparent) })
}

// Resizable reports whether the user can resize the window.
func (w *Window) Resizable(ctx context.Context) (bool, error) {
	return call(ctx, w, reactor.OpResizable, native.Window.Resizable)
}

// SetResizable sets whether the user can resize the window.
func (w *Window) SetResizable(ctx context.Context, resizable bool) error {
	return do(ctx, w, reactor.OpSetResizable, func(nw native.Window) { nw.SetResizable(resizable) })
}

// Visible reports visibility; known is false when the platform cannot tell.
func (w *Window) Visible(ctx context.Context) (visible, known bool, err error) {
	res, err := call(ctx, w, reactor.OpVisible, func(nw native.Window) [2]bool {
		v, ok := nw.Visible()
		return [2]bool{v, ok}
	})
	return res[0], res[1], err
}

// SetVisible shows or hides the window.
func (w *Window) SetVisible(ctx context.Context, visible bool) error {
	return do(ctx, w, reactor.OpSetVisible, func(nw native.Window) { nw.SetVisible(visible) })
}

// Minimized reports minimization; known is false when the platform cannot tell.
func (w *Window) Minimized(ctx context.Context) (minimized, known bool, err error) {
	res, err := call(ctx, w, reactor.OpMinimized, func(nw native.Window) [2]bool {
		v, ok := nw.Minimized()
		return [2]bool{v, ok}
	})
	return res[0], res[1], err
}

// SetMinimized minimizes or restores the window.
func (w *Window) SetMinimized(ctx context.Context, minimized bool) error {
	return do(ctx, w, reactor.OpSetMinimized, func(nw native.Window) { nw.SetMinimized(minimized) })
}

// Maximized reports whether the window is maximized.
func (w *Window) Maximized(ctx context.Context) (bool, error) {
	return call(ctx, w, reactor.OpMaximized, native.Window.Maximized)
}

// SetMaximized maximizes or restores the window.
func (w *Window) SetMaximized(ctx context.Context, maximized bool) error {
	return do(ctx, w, reactor.OpSetMaximized, func(nw native.Window) { nw.SetMaximized(maximized) })
}

// Fullscreen returns the fullscreen state; nil means windowed.
func (w *Window) Fullscreen(ctx context.Context) (*native.Fullscreen, error) {
	return call(ctx, w, reactor.OpFullscreen, native.Window.Fullscreen)
}

// SetFullscreen changes the fullscreen state; nil means windowed.
func (w *Window) SetFullscreen(ctx context.Context, fs *native.Fullscreen) error {
	return do(ctx, w, reactor.OpSetFullscreen, func(nw native.Window) { nw.SetFullscreen(fs) })
}

// SetWindowLevel changes the stacking level.
func (w *Window) SetWindowLevel(ctx context.Context, level native.WindowLevel) error {
	return do(ctx, w, reactor.OpSetWindowLevel, func(nw native.Window) { nw.SetWindowLevel(level) })
}

// Theme returns the window theme, if the platform reports one.
func (w *Window) Theme(ctx context.Context) (*native.Theme, error) {
	return call(ctx, w, reactor.OpTheme, native.Window.Theme)
}

// SetTheme overrides the window theme; nil follows the system.
func (w *Window) SetTheme(ctx context.Context, theme *native.Theme) error {
	return do(ctx, w, reactor.OpSetTheme, func(nw native.Window) { nw.SetTheme(theme) })
}

// SetContentProtected prevents the window contents from being captured.
func (w *Window) SetContentProtected(ctx context.Context, protected bool) error {
	return do(ctx, w, reactor.OpSetContentProtected, func(nw native.Window) { nw.SetContentProtected(protected) })
}

// SetImeCursorArea tells the input method where the text cursor is.
func (w *Window) SetImeCursorArea(ctx context.Context, pos native.PhysicalPosition, size native.PhysicalSize) error {
	return do(ctx, w, reactor.OpSetImeCursorArea, func(nw native.Window) { nw.SetImeCursorArea(pos, size) })
}

// SetImeAllowed enables or disables input method events.
func (w *Window) SetImeAllowed(ctx context.Context, allowed bool) error {
	return do(ctx, w, reactor.OpSetImeAllowed, func(nw native.Window) { nw.SetImeAllowed(allowed) })
}

// SetImePurpose hints the kind of text being entered.
func (w *Window) SetImePurpose(ctx context.Context, purpose native.ImePurpose) error {
	return do(ctx, w, reactor.OpSetImePurpose, func(nw native.Window) { nw.SetImePurpose(purpose) })
}

// Focus brings the window to the front and gives it input focus.
func (w *Window) Focus(ctx context.Context) error {
	return do(ctx, w, reactor.OpFocusWindow, native.Window.FocusWindow)
}

// HasFocus reports whether the window has input focus.
func (w *Window) HasFocus(ctx context.Context) (bool, error) {
	return call(ctx, w, reactor.OpHasFocus, native.Window.HasFocus)
}

// RequestUserAttention asks for attention; nil cancels a previous request.
func (w *Window) RequestUserAttention(ctx context.Context, kind *native.UserAttention) error {
	return do(ctx, w, reactor.OpRequestUserAttention, func(nw native.Window) { nw.RequestUserAttention(kind) })
}

// RequestRedraw schedules a RedrawRequested event.
func (w *Window) RequestRedraw(ctx context.Context) error {
	return do(ctx, w, reactor.OpRequestRedraw, native.Window.RequestRedraw)
}

// SetCursorIcon changes the pointer image.
func (w *Window) SetCursorIcon(ctx context.Context, icon native.CursorIcon) error {
	return do(ctx, w, reactor.OpSetCursorIcon, func(nw native.Window) { nw.SetCursorIcon(icon) })
}

// SetCursorPosition warps the pointer.
func (w *Window) SetCursorPosition(ctx context.Context, pos native.PhysicalPosition) error {
	return doErr(ctx, w, reactor.OpSetCursorPosition, func(nw native.Window) error { return nw.SetCursorPosition(pos) })
}

// SetCursorGrab confines or locks the pointer.
func (w *Window) SetCursorGrab(ctx context.Context, mode native.CursorGrabMode) error {
	return doErr(ctx, w, reactor.OpSetCursorGrab, func(nw native.Window) error { return nw.SetCursorGrab(mode) })
}

// SetCursorVisible shows or hides the pointer over the window.
func (w *Window) SetCursorVisible(ctx context.Context, visible bool) error {
	return do(ctx, w, reactor.OpSetCursorVisible, func(nw native.Window) { nw.SetCursorVisible(visible) })
}

// SetCursorHitTest sets whether the window receives pointer events.
func (w *Window) SetCursorHitTest(ctx context.Context, hitTest bool) error {
	return doErr(ctx, w, reactor.OpSetCursorHitTest, func(nw native.Window) error { return nw.SetCursorHitTest(hitTest) })
}

// Drag starts moving the window with the pointer.
func (w *Window) Drag(ctx context.Context) error {
	return doErr(ctx, w, reactor.OpDragWindow, native.Window.DragWindow)
}

// DragResize starts resizing the window from the given edge.
func (w *Window) DragResize(ctx context.Context, direction native.ResizeDirection) error {
	return doErr(ctx, w, reactor.OpDragResizeWindow, func(nw native.Window) error { return nw.DragResizeWindow(direction) })
}

// CurrentMonitor returns the monitor the window is on, if known.
func (w *Window) CurrentMonitor(ctx context.Context) (native.Monitor, bool, error) {
	type current struct {
		m  native.Monitor
		ok bool
	}
	res, err := call(ctx, w, reactor.OpCurrentMonitor, func(nw native.Window) current {
		m, ok := nw.CurrentMonitor()
		return current{m, ok}
	})
	return res.m, res.ok, err
}
