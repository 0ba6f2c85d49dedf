// Package backend provides native loop implementations for asyncwin.
//
// Null is a headless loop with in-memory windows, used by tests and the
// command line when no display is wanted. Terminal drives a tcell screen
// and exposes it as a single window.
package backend

import (
	"errors"
	"sync"

	"github.com/dshills/asyncwin/internal/native"
)

// Backend errors.
var (
	// ErrLoopRunning is returned when Run is called on a loop that is
	// already running.
	ErrLoopRunning = errors.New("loop already running")

	// ErrSingleWindow is returned by backends that can only show one window.
	ErrSingleWindow = errors.New("backend supports a single window")

	// ErrUnknownWindow is returned when injecting into a window that does
	// not exist.
	ErrUnknownWindow = errors.New("unknown window")
)

// titleBarHeight is the decoration height added above decorated windows.
const titleBarHeight = 30

// memWindow keeps window state in memory. The loop thread mutates it;
// tests read it from other goroutines, hence the lock.
type memWindow struct {
	id native.WindowID

	mu               sync.Mutex
	title            string
	position         native.PhysicalPosition
	inner            native.PhysicalSize
	minSize          *native.PhysicalSize
	maxSize          *native.PhysicalSize
	increments       *native.PhysicalSize
	decorated        bool
	transparent      bool
	resizable        bool
	visible          bool
	minimized        bool
	maximized        bool
	fullscreen       *native.Fullscreen
	level            native.WindowLevel
	theme            *native.Theme
	icon             *native.Icon
	contentProtected bool
	imeAllowed       bool
	imePurpose       native.ImePurpose
	imePos           native.PhysicalPosition
	imeSize          native.PhysicalSize
	focused          bool
	attention        *native.UserAttention
	cursorIcon       native.CursorIcon
	cursorPos        native.PhysicalPosition
	cursorGrab       native.CursorGrabMode
	cursorVisible    bool
	hitTest          bool
	monitor          native.Monitor
	hasMonitor       bool

	// redraw queues a RedrawRequested for the window.
	redraw func(native.WindowID)
}

func newMemWindow(attrs native.WindowAttributes, monitor native.Monitor, hasMonitor bool, redraw func(native.WindowID)) *memWindow {
	w := &memWindow{
		id:            native.NewWindowID(),
		title:         attrs.Title,
		inner:         native.PhysicalSize{Width: 800, Height: 600},
		minSize:       attrs.MinSize,
		maxSize:       attrs.MaxSize,
		decorated:     attrs.Decorations,
		transparent:   attrs.Transparent,
		resizable:     attrs.Resizable,
		visible:       attrs.Visible,
		maximized:     attrs.Maximized,
		fullscreen:    attrs.Fullscreen,
		level:         attrs.Level,
		theme:         attrs.Theme,
		icon:          attrs.Icon,
		cursorVisible: true,
		hitTest:       true,
		monitor:       monitor,
		hasMonitor:    hasMonitor,
		redraw:        redraw,
	}
	if attrs.InnerSize != nil {
		w.inner = *attrs.InnerSize
	}
	if attrs.Position != nil {
		w.position = *attrs.Position
	}
	w.inner = w.clamp(w.inner)
	return w
}

func (w *memWindow) clamp(s native.PhysicalSize) native.PhysicalSize {
	if w.minSize != nil {
		s.Width = max(s.Width, w.minSize.Width)
		s.Height = max(s.Height, w.minSize.Height)
	}
	if w.maxSize != nil {
		s.Width = min(s.Width, w.maxSize.Width)
		s.Height = min(s.Height, w.maxSize.Height)
	}
	return s
}

func (w *memWindow) decorationHeight() int32 {
	if w.decorated {
		return titleBarHeight
	}
	return 0
}

func (w *memWindow) setInnerSize(s native.PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inner = w.clamp(s)
}

func (w *memWindow) setPosition(p native.PhysicalPosition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.position = p
}

func (w *memWindow) setFocused(f bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = f
}

func (w *memWindow) ID() native.WindowID { return w.id }

func (w *memWindow) InnerPosition() (native.PhysicalPosition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.position
	p.Y += w.decorationHeight()
	return p, nil
}

func (w *memWindow) OuterPosition() (native.PhysicalPosition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position, nil
}

func (w *memWindow) SetOuterPosition(pos native.PhysicalPosition) {
	w.setPosition(pos)
}

func (w *memWindow) InnerSize() native.PhysicalSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inner
}

func (w *memWindow) OuterSize() native.PhysicalSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.inner
	s.Height += uint32(w.decorationHeight())
	return s
}

func (w *memWindow) SetMinInnerSize(size *native.PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minSize = size
	w.inner = w.clamp(w.inner)
}

func (w *memWindow) SetMaxInnerSize(size *native.PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maxSize = size
	w.inner = w.clamp(w.inner)
}

func (w *memWindow) ResizeIncrements() *native.PhysicalSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.increments
}

func (w *memWindow) SetResizeIncrements(size *native.PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.increments = size
}

func (w *memWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *memWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

func (w *memWindow) SetWindowIcon(icon *native.Icon) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.icon = icon
}

func (w *memWindow) Decorated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.decorated
}

func (w *memWindow) SetDecorations(decorated bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.decorated = decorated
}

func (w *memWindow) SetTransparent(transparent bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transparent = transparent
}

func (w *memWindow) Resizable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resizable
}

func (w *memWindow) SetResizable(resizable bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resizable = resizable
}

func (w *memWindow) Visible() (bool, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible, true
}

func (w *memWindow) SetVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = visible
}

func (w *memWindow) Minimized() (bool, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized, true
}

func (w *memWindow) SetMinimized(minimized bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimized = minimized
}

func (w *memWindow) Maximized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximized
}

func (w *memWindow) SetMaximized(maximized bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maximized = maximized
}

func (w *memWindow) Fullscreen() *native.Fullscreen {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

func (w *memWindow) SetFullscreen(fs *native.Fullscreen) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fullscreen = fs
}

func (w *memWindow) SetWindowLevel(level native.WindowLevel) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.level = level
}

func (w *memWindow) Theme() *native.Theme {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.theme
}

func (w *memWindow) SetTheme(theme *native.Theme) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.theme = theme
}

func (w *memWindow) SetContentProtected(protected bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.contentProtected = protected
}

func (w *memWindow) SetImeCursorArea(pos native.PhysicalPosition, size native.PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.imePos, w.imeSize = pos, size
}

func (w *memWindow) SetImeAllowed(allowed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.imeAllowed = allowed
}

func (w *memWindow) SetImePurpose(purpose native.ImePurpose) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.imePurpose = purpose
}

func (w *memWindow) FocusWindow() {
	w.setFocused(true)
}

func (w *memWindow) HasFocus() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *memWindow) RequestUserAttention(kind *native.UserAttention) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attention = kind
}

func (w *memWindow) RequestRedraw() {
	if w.redraw != nil {
		w.redraw(w.id)
	}
}

func (w *memWindow) SetCursorIcon(icon native.CursorIcon) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursorIcon = icon
}

func (w *memWindow) SetCursorPosition(pos native.PhysicalPosition) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursorPos = pos
	return nil
}

func (w *memWindow) SetCursorGrab(mode native.CursorGrabMode) error {
	if mode == native.CursorGrabLocked {
		return native.ErrNotSupported
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursorGrab = mode
	return nil
}

func (w *memWindow) SetCursorVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursorVisible = visible
}

func (w *memWindow) SetCursorHitTest(hitTest bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hitTest = hitTest
	return nil
}

// DragWindow needs a pointer-driven compositor; in-memory windows have none.
func (w *memWindow) DragWindow() error {
	return native.ErrNotSupported
}

func (w *memWindow) DragResizeWindow(native.ResizeDirection) error {
	return native.ErrNotSupported
}

func (w *memWindow) CurrentMonitor() (native.Monitor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.monitor, w.hasMonitor
}
