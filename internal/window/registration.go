// Package window holds the per-window set of event handlers and the
// demultiplexer that routes native window events into them.
package window

import (
	"github.com/dshills/asyncwin/internal/event"
	"github.com/dshills/asyncwin/internal/native"
)

// ScaleFactorChanging is the unique view of a scale-factor change. Only the
// interceptor of Registration.ScaleFactorChanged receives it, and only it
// can choose the window's new inner size.
type ScaleFactorChanging struct {
	ScaleFactor float64
	Writer      *native.InnerSizeWriter
}

// ScaleFactorChanged is the clonable snapshot of a scale-factor change.
type ScaleFactorChanged struct {
	ScaleFactor float64
	// InnerSize is the inner size the window will get, as decided by the
	// interceptor if one ran before the snapshot was taken.
	InnerSize native.PhysicalSize
}

func downgradeScaleFactor(u *ScaleFactorChanging) ScaleFactorChanged {
	c := ScaleFactorChanged{ScaleFactor: u.ScaleFactor}
	if u.Writer != nil {
		c.InnerSize, _ = u.Writer.InnerSize()
	}
	return c
}

// Registration is the bundle of handlers belonging to one live window.
// It is shared by the reactor's registry and every task watching the
// window; removing it from the registry does not invalidate existing
// subscriptions, it only stops new occurrences.
type Registration struct {
	id native.WindowID

	RedrawRequested    *event.Handler[struct{}, struct{}]
	CloseRequested     *event.Handler[struct{}, struct{}]
	Resized            *event.Handler[native.PhysicalSize, native.PhysicalSize]
	Moved              *event.Handler[native.PhysicalPosition, native.PhysicalPosition]
	Destroyed          *event.Handler[struct{}, struct{}]
	Focused            *event.Handler[bool, bool]
	ReceivedCharacter  *event.Handler[rune, rune]
	KeyboardInput      *event.Handler[native.KeyboardInput, native.KeyboardInput]
	ModifiersChanged   *event.Handler[native.ModifiersState, native.ModifiersState]
	Ime                *event.Handler[native.Ime, native.Ime]
	CursorMoved        *event.Handler[native.CursorMoved, native.CursorMoved]
	CursorEntered      *event.Handler[native.DeviceID, native.DeviceID]
	CursorLeft         *event.Handler[native.DeviceID, native.DeviceID]
	MouseWheel         *event.Handler[native.MouseWheel, native.MouseWheel]
	MouseInput         *event.Handler[native.MouseInput, native.MouseInput]
	TouchpadMagnify    *event.Handler[native.TouchpadMagnify, native.TouchpadMagnify]
	SmartMagnify       *event.Handler[native.DeviceID, native.DeviceID]
	TouchpadRotate     *event.Handler[native.TouchpadRotate, native.TouchpadRotate]
	TouchpadPressure   *event.Handler[native.TouchpadPressure, native.TouchpadPressure]
	AxisMotion         *event.Handler[native.AxisMotion, native.AxisMotion]
	Touch              *event.Handler[native.Touch, native.Touch]
	ScaleFactorChanged *event.Handler[ScaleFactorChanging, ScaleFactorChanged]
	ThemeChanged       *event.Handler[native.Theme, native.Theme]
	Occluded           *event.Handler[bool, bool]
}

// NewRegistration creates an empty registration for the given window.
func NewRegistration(id native.WindowID) *Registration {
	return &Registration{
		id:                 id,
		RedrawRequested:    event.NewHandler[struct{}](),
		CloseRequested:     event.NewHandler[struct{}](),
		Resized:            event.NewHandler[native.PhysicalSize](),
		Moved:              event.NewHandler[native.PhysicalPosition](),
		Destroyed:          event.NewHandler[struct{}](),
		Focused:            event.NewHandler[bool](),
		ReceivedCharacter:  event.NewHandler[rune](),
		KeyboardInput:      event.NewHandler[native.KeyboardInput](),
		ModifiersChanged:   event.NewHandler[native.ModifiersState](),
		Ime:                event.NewHandler[native.Ime](),
		CursorMoved:        event.NewHandler[native.CursorMoved](),
		CursorEntered:      event.NewHandler[native.DeviceID](),
		CursorLeft:         event.NewHandler[native.DeviceID](),
		MouseWheel:         event.NewHandler[native.MouseWheel](),
		MouseInput:         event.NewHandler[native.MouseInput](),
		TouchpadMagnify:    event.NewHandler[native.TouchpadMagnify](),
		SmartMagnify:       event.NewHandler[native.DeviceID](),
		TouchpadRotate:     event.NewHandler[native.TouchpadRotate](),
		TouchpadPressure:   event.NewHandler[native.TouchpadPressure](),
		AxisMotion:         event.NewHandler[native.AxisMotion](),
		Touch:              event.NewHandler[native.Touch](),
		ScaleFactorChanged: event.NewUniqueHandler(downgradeScaleFactor),
		ThemeChanged:       event.NewHandler[native.Theme](),
		Occluded:           event.NewHandler[bool](),
	}
}

// ID returns the window this registration belongs to.
func (r *Registration) ID() native.WindowID {
	return r.id
}

// Signal broadcasts a window event payload to the matching handler.
// Payload kinds without a handler are ignored.
func (r *Registration) Signal(payload native.WindowPayload, data any) error {
	switch p := payload.(type) {
	case native.RedrawRequested:
		return r.RedrawRequested.Run(struct{}{}, data)
	case native.CloseRequested:
		return r.CloseRequested.Run(struct{}{}, data)
	case native.Resized:
		return r.Resized.Run(p.Size, data)
	case native.Moved:
		return r.Moved.Run(p.Position, data)
	case native.Destroyed:
		return r.Destroyed.Run(struct{}{}, data)
	case native.Focused:
		return r.Focused.Run(p.Focused, data)
	case native.ReceivedCharacter:
		return r.ReceivedCharacter.Run(p.Char, data)
	case native.KeyboardInput:
		return r.KeyboardInput.Run(p, data)
	case native.ModifiersChanged:
		return r.ModifiersChanged.Run(p.Mods, data)
	case native.ImeEvent:
		return r.Ime.Run(p.Ime, data)
	case native.CursorMoved:
		return r.CursorMoved.Run(p, data)
	case native.CursorEntered:
		return r.CursorEntered.Run(p.Device, data)
	case native.CursorLeft:
		return r.CursorLeft.Run(p.Device, data)
	case native.MouseWheel:
		return r.MouseWheel.Run(p, data)
	case native.MouseInput:
		return r.MouseInput.Run(p, data)
	case native.TouchpadMagnify:
		return r.TouchpadMagnify.Run(p, data)
	case native.SmartMagnify:
		return r.SmartMagnify.Run(p.Device, data)
	case native.TouchpadRotate:
		return r.TouchpadRotate.Run(p, data)
	case native.TouchpadPressure:
		return r.TouchpadPressure.Run(p, data)
	case native.AxisMotion:
		return r.AxisMotion.Run(p, data)
	case native.Touch:
		return r.Touch.Run(p, data)
	case native.ScaleFactorChanged:
		return r.ScaleFactorChanged.RunWith(&ScaleFactorChanging{
			ScaleFactor: p.ScaleFactor,
			Writer:      p.Writer,
		}, data)
	case native.ThemeChanged:
		return r.ThemeChanged.Run(p.Theme, data)
	case native.Occluded:
		return r.Occluded.Run(p.Occluded, data)
	default:
		return nil
	}
}
