package native

// Window is a live native window. Its methods must only be called from the
// native loop thread; asyncwin marshals every call through the reactor's
// operation queue.
type Window interface {
	ID() WindowID

	InnerPosition() (PhysicalPosition, error)
	OuterPosition() (PhysicalPosition, error)
	SetOuterPosition(pos PhysicalPosition)
	InnerSize() PhysicalSize
	OuterSize() PhysicalSize
	SetMinInnerSize(size *PhysicalSize)
	SetMaxInnerSize(size *PhysicalSize)
	ResizeIncrements() *PhysicalSize
	SetResizeIncrements(size *PhysicalSize)

	Title() string
	SetTitle(title string)
	SetWindowIcon(icon *Icon)
	Decorated() bool
	SetDecorations(decorated bool)
	SetTransparent(transparent bool)
	Resizable() bool
	SetResizable(resizable bool)
	// Visible reports visibility; ok is false when the platform cannot tell.
	Visible() (visible, ok bool)
	SetVisible(visible bool)
	// Minimized reports minimization; ok is false when the platform cannot tell.
	Minimized() (minimized, ok bool)
	SetMinimized(minimized bool)
	Maximized() bool
	SetMaximized(maximized bool)
	Fullscreen() *Fullscreen
	SetFullscreen(fs *Fullscreen)
	SetWindowLevel(level WindowLevel)
	Theme() *Theme
	SetTheme(theme *Theme)
	SetContentProtected(protected bool)

	SetImeCursorArea(pos PhysicalPosition, size PhysicalSize)
	SetImeAllowed(allowed bool)
	SetImePurpose(purpose ImePurpose)

	FocusWindow()
	HasFocus() bool
	RequestUserAttention(kind *UserAttention)
	RequestRedraw()

	SetCursorIcon(icon CursorIcon)
	SetCursorPosition(pos PhysicalPosition) error
	SetCursorGrab(mode CursorGrabMode) error
	SetCursorVisible(visible bool)
	SetCursorHitTest(hitTest bool) error
	DragWindow() error
	DragResizeWindow(direction ResizeDirection) error

	CurrentMonitor() (Monitor, bool)
}

// Target is the loop-thread view of the native loop handed to operations.
type Target interface {
	BuildWindow(attrs WindowAttributes) (Window, error)
	// DestroyWindow releases a window built on this loop. No events are
	// delivered for it afterwards. Unknown ids are ignored.
	DestroyWindow(id WindowID)
	PrimaryMonitor() (Monitor, bool)
	AvailableMonitors() []Monitor
}
