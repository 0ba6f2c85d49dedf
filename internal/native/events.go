package native

import "sync"

// Event is the closed set of events a native loop delivers to its callback.
type Event interface {
	isEvent()
}

// StartCause explains why a loop iteration began.
type StartCause int

const (
	StartInit StartCause = iota
	StartPoll
	StartWaitCancelled
	StartResumeTimeReached
)

// NewEvents starts a loop iteration.
type NewEvents struct{ Cause StartCause }

// WindowEvent carries a window-scoped payload.
type WindowEvent struct {
	Window  WindowID
	Payload WindowPayload
}

// Resumed is sent when the application becomes active.
type Resumed struct{}

// Suspended is sent when the application is backgrounded.
type Suspended struct{}

// Wakeup is sent when the loop was woken through its Proxy.
type Wakeup struct{}

// AboutToWait is sent once all pending events of an iteration are delivered.
type AboutToWait struct{}

// LoopExiting is the last event a loop delivers.
type LoopExiting struct{}

// DeviceEvent is a raw device event. The reactor ignores it.
type DeviceEvent struct {
	Device DeviceID
	Kind   string
}

func (NewEvents) isEvent()   {}
func (WindowEvent) isEvent() {}
func (Resumed) isEvent()     {}
func (Suspended) isEvent()   {}
func (Wakeup) isEvent()      {}
func (AboutToWait) isEvent() {}
func (LoopExiting) isEvent() {}
func (DeviceEvent) isEvent() {}

// WindowPayload is the closed set of window-scoped event payloads.
type WindowPayload interface {
	isWindowPayload()
}

// ElementState is the pressed state of a key or button.
type ElementState int

const (
	Pressed ElementState = iota
	Released
)

// TouchPhase is the phase of a touch or gesture.
type TouchPhase int

const (
	TouchStarted TouchPhase = iota
	TouchMoved
	TouchEnded
	TouchCancelled
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	MouseBack
	MouseForward
	MouseOther
)

// ModifiersState is a bit set of held modifier keys.
type ModifiersState uint32

const (
	ModShift ModifiersState = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

// Has reports whether every modifier in m is held.
func (s ModifiersState) Has(m ModifiersState) bool {
	return s&m == m
}

// Key is a logical key. Named keys use the constants below; character keys
// are reported through KeyEvent.Text.
type Key int

const (
	KeyUnidentified Key = iota
	KeyCharacter
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// KeyEvent describes a single key transition.
type KeyEvent struct {
	Key      Key
	Text     string
	State    ElementState
	Repeat   bool
	Mods     ModifiersState
	Location int
}

// ScrollDelta is a wheel movement, either in lines or pixels.
type ScrollDelta struct {
	Lines  bool
	DX, DY float64
}

// ImeKind enumerates input method events.
type ImeKind int

const (
	ImeEnabled ImeKind = iota
	ImePreedit
	ImeCommit
	ImeDisabled
)

// Ime is an input method event.
type Ime struct {
	Kind ImeKind
	Text string
	// Cursor is the preedit cursor range, if any.
	Cursor *[2]int
}

// Window payloads.
type (
	RedrawRequested struct{}
	CloseRequested  struct{}
	Resized         struct{ Size PhysicalSize }
	Moved           struct{ Position PhysicalPosition }
	Destroyed       struct{}
	Focused         struct{ Focused bool }
	// ReceivedCharacter is a committed character of text input.
	ReceivedCharacter struct{ Char rune }
	KeyboardInput     struct {
		Device    DeviceID
		Event     KeyEvent
		Synthetic bool
	}
	ModifiersChanged struct{ Mods ModifiersState }
	ImeEvent         struct{ Ime Ime }
	CursorMoved      struct {
		Device   DeviceID
		Position FloatPosition
	}
	CursorEntered struct{ Device DeviceID }
	CursorLeft    struct{ Device DeviceID }
	MouseWheel    struct {
		Device DeviceID
		Delta  ScrollDelta
		Phase  TouchPhase
	}
	MouseInput struct {
		Device DeviceID
		State  ElementState
		Button MouseButton
	}
	TouchpadMagnify struct {
		Device DeviceID
		Delta  float64
		Phase  TouchPhase
	}
	SmartMagnify   struct{ Device DeviceID }
	TouchpadRotate struct {
		Device DeviceID
		Delta  float32
		Phase  TouchPhase
	}
	TouchpadPressure struct {
		Device   DeviceID
		Pressure float32
		Stage    int64
	}
	AxisMotion struct {
		Device DeviceID
		Axis   uint32
		Value  float64
	}
	Touch struct {
		Device   DeviceID
		Phase    TouchPhase
		Location FloatPosition
		Force    *float64
		ID       uint64
	}
	ScaleFactorChanged struct {
		ScaleFactor float64
		Writer      *InnerSizeWriter
	}
	ThemeChanged struct{ Theme Theme }
	Occluded     struct{ Occluded bool }
	// DroppedFile is not routed by the reactor.
	DroppedFile struct{ Path string }
)

func (RedrawRequested) isWindowPayload()    {}
func (CloseRequested) isWindowPayload()     {}
func (Resized) isWindowPayload()            {}
func (Moved) isWindowPayload()              {}
func (Destroyed) isWindowPayload()          {}
func (Focused) isWindowPayload()            {}
func (ReceivedCharacter) isWindowPayload()  {}
func (KeyboardInput) isWindowPayload()      {}
func (ModifiersChanged) isWindowPayload()   {}
func (ImeEvent) isWindowPayload()           {}
func (CursorMoved) isWindowPayload()        {}
func (CursorEntered) isWindowPayload()      {}
func (CursorLeft) isWindowPayload()         {}
func (MouseWheel) isWindowPayload()         {}
func (MouseInput) isWindowPayload()         {}
func (TouchpadMagnify) isWindowPayload()    {}
func (SmartMagnify) isWindowPayload()       {}
func (TouchpadRotate) isWindowPayload()     {}
func (TouchpadPressure) isWindowPayload()   {}
func (AxisMotion) isWindowPayload()         {}
func (Touch) isWindowPayload()              {}
func (ScaleFactorChanged) isWindowPayload() {}
func (ThemeChanged) isWindowPayload()       {}
func (Occluded) isWindowPayload()           {}
func (DroppedFile) isWindowPayload()        {}

// InnerSizeWriter lets the recipient of a scale-factor change pick the
// window's new inner size. The native loop reads the result after the
// event has been delivered.
type InnerSizeWriter struct {
	mu   sync.Mutex
	size PhysicalSize
	set  bool
}

// NewInnerSizeWriter creates a writer proposing the given size.
func NewInnerSizeWriter(proposed PhysicalSize) *InnerSizeWriter {
	return &InnerSizeWriter{size: proposed}
}

// RequestInnerSize overrides the proposed size.
func (w *InnerSizeWriter) RequestInnerSize(size PhysicalSize) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.size = size
	w.set = true
}

// InnerSize returns the size the window will be given, and whether a
// recipient overrode the proposal.
func (w *InnerSizeWriter) InnerSize() (PhysicalSize, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size, w.set
}
