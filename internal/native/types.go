// Package native defines the boundary between asyncwin and the native
// windowing loop that drives it.
//
// The native loop is an external, non-suspending collaborator: it owns the
// platform windows, generates events from a closed set, and runs operation
// requests on its own thread. Everything in this package is plain data or
// an interface implemented by a backend; nothing here blocks.
package native

import (
	"fmt"

	"github.com/google/uuid"
)

// WindowID is the opaque identity of a native window.
type WindowID uuid.UUID

// NewWindowID allocates a fresh window identity.
func NewWindowID() WindowID {
	return WindowID(uuid.New())
}

// String returns the canonical textual form of the id.
func (id WindowID) String() string {
	return uuid.UUID(id).String()
}

// DeviceID identifies the input device an event originated from.
type DeviceID uuid.UUID

// NewDeviceID allocates a fresh device identity.
func NewDeviceID() DeviceID {
	return DeviceID(uuid.New())
}

// String returns the canonical textual form of the id.
func (id DeviceID) String() string {
	return uuid.UUID(id).String()
}

// PhysicalPosition is a position in physical pixels.
type PhysicalPosition struct {
	X, Y int32
}

// FloatPosition is a sub-pixel position, used for cursor and touch input.
type FloatPosition struct {
	X, Y float64
}

// PhysicalSize is a size in physical pixels.
type PhysicalSize struct {
	Width, Height uint32
}

// String formats the size as WxH.
func (s PhysicalSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Theme is the window color theme.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

// String returns the theme name.
func (t Theme) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// CursorIcon selects the pointer image shown over a window.
type CursorIcon int

const (
	CursorDefault CursorIcon = iota
	CursorPointer
	CursorText
	CursorCrosshair
	CursorMove
	CursorWait
	CursorNotAllowed
	CursorGrab
	CursorGrabbing
	CursorEWResize
	CursorNSResize
)

// CursorGrabMode controls whether the cursor is confined to a window.
type CursorGrabMode int

const (
	CursorGrabNone CursorGrabMode = iota
	CursorGrabConfined
	CursorGrabLocked
)

// WindowLevel is the stacking level of a window.
type WindowLevel int

const (
	WindowLevelNormal WindowLevel = iota
	WindowLevelAlwaysOnBottom
	WindowLevelAlwaysOnTop
)

// ImePurpose hints the input method about the kind of text expected.
type ImePurpose int

const (
	ImePurposeNormal ImePurpose = iota
	ImePurposePassword
	ImePurposeTerminal
)

// UserAttention is the urgency of an attention request.
type UserAttention int

const (
	UserAttentionInformational UserAttention = iota
	UserAttentionCritical
)

// ResizeDirection is the edge or corner used for a drag-resize.
type ResizeDirection int

const (
	ResizeEast ResizeDirection = iota
	ResizeNorth
	ResizeNorthEast
	ResizeNorthWest
	ResizeSouth
	ResizeSouthEast
	ResizeSouthWest
	ResizeWest
)

// FullscreenMode selects how a window covers a monitor.
type FullscreenMode int

const (
	FullscreenBorderless FullscreenMode = iota
	FullscreenExclusive
)

// Fullscreen describes a fullscreen state. A nil *Fullscreen means windowed.
type Fullscreen struct {
	Mode FullscreenMode
	// Monitor is the target monitor; the zero value means the current one.
	Monitor Monitor
}

// Icon is an RGBA window icon.
type Icon struct {
	RGBA   []byte
	Width  uint32
	Height uint32
}

// Monitor describes a display attached to the system.
type Monitor struct {
	Name                  string
	Position              PhysicalPosition
	Size                  PhysicalSize
	ScaleFactor           float64
	RefreshRateMillihertz uint32
}

// WindowAttributes are the parameters of a build-window request.
type WindowAttributes struct {
	Title       string
	InnerSize   *PhysicalSize
	MinSize     *PhysicalSize
	MaxSize     *PhysicalSize
	Position    *PhysicalPosition
	Resizable   bool
	Visible     bool
	Decorations bool
	Transparent bool
	Maximized   bool
	Fullscreen  *Fullscreen
	Level       WindowLevel
	Theme       *Theme
	Icon        *Icon
}

// DefaultWindowAttributes returns the attributes of a plain, visible,
// decorated, resizable window.
func DefaultWindowAttributes() WindowAttributes {
	return WindowAttributes{
		Title:       "asyncwin",
		Resizable:   true,
		Visible:     true,
		Decorations: true,
	}
}
