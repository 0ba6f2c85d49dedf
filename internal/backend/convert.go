package backend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/asyncwin/internal/native"
)

// translator turns tcell events into window payloads. Terminals report
// state rather than transitions for modifiers and mouse buttons, so the
// translator remembers the previous state to synthesize them.
type translator struct {
	device  native.DeviceID
	mods    native.ModifiersState
	buttons tcell.ButtonMask
	cursor  native.PhysicalPosition
	seen    bool
}

func newTranslator() *translator {
	return &translator{device: native.NewDeviceID()}
}

// convert returns the payloads ev maps to, in delivery order. Events with
// no window meaning (interrupts, paste markers) map to nothing.
func (t *translator) convert(ev tcell.Event) []native.WindowPayload {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return t.key(e)

	case *tcell.EventMouse:
		return t.mouse(e)

	case *tcell.EventResize:
		w, h := e.Size()
		return []native.WindowPayload{native.Resized{Size: native.PhysicalSize{Width: uint32(w), Height: uint32(h)}}}

	case *tcell.EventFocus:
		return []native.WindowPayload{native.Focused{Focused: e.Focused}}

	default:
		return nil
	}
}

func (t *translator) key(e *tcell.EventKey) []native.WindowPayload {
	var out []native.WindowPayload
	out = t.modifiers(out, convertMod(e.Modifiers()))

	ke := native.KeyEvent{
		Key:   convertKey(e.Key()),
		State: native.Pressed,
		Mods:  t.mods,
	}
	if e.Key() == tcell.KeyRune {
		ke.Text = string(e.Rune())
	}
	out = append(out, native.KeyboardInput{Device: t.device, Event: ke})
	if e.Key() == tcell.KeyRune {
		out = append(out, native.ReceivedCharacter{Char: e.Rune()})
	}
	return out
}

func (t *translator) mouse(e *tcell.EventMouse) []native.WindowPayload {
	var out []native.WindowPayload
	out = t.modifiers(out, convertMod(e.Modifiers()))

	x, y := e.Position()
	pos := native.PhysicalPosition{X: int32(x), Y: int32(y)}
	entered := !t.seen
	if entered {
		t.seen = true
		out = append(out, native.CursorEntered{Device: t.device})
	}
	if entered || pos != t.cursor {
		t.cursor = pos
		out = append(out, native.CursorMoved{
			Device:   t.device,
			Position: native.FloatPosition{X: float64(x), Y: float64(y)},
		})
	}

	buttons := e.Buttons()
	for _, b := range []struct {
		mask   tcell.ButtonMask
		button native.MouseButton
	}{
		{tcell.Button1, native.MouseLeft},
		{tcell.Button2, native.MouseRight},
		{tcell.Button3, native.MouseMiddle},
	} {
		was, is := t.buttons&b.mask != 0, buttons&b.mask != 0
		switch {
		case is && !was:
			out = append(out, native.MouseInput{Device: t.device, State: native.Pressed, Button: b.button})
		case was && !is:
			out = append(out, native.MouseInput{Device: t.device, State: native.Released, Button: b.button})
		}
	}
	t.buttons = buttons &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)

	if d, ok := wheelDelta(buttons); ok {
		out = append(out, native.MouseWheel{Device: t.device, Delta: d, Phase: native.TouchMoved})
	}
	return out
}

func (t *translator) modifiers(out []native.WindowPayload, mods native.ModifiersState) []native.WindowPayload {
	if mods == t.mods {
		return out
	}
	t.mods = mods
	return append(out, native.ModifiersChanged{Mods: mods})
}

func wheelDelta(b tcell.ButtonMask) (native.ScrollDelta, bool) {
	d := native.ScrollDelta{Lines: true}
	switch {
	case b&tcell.WheelUp != 0:
		d.DY = 1
	case b&tcell.WheelDown != 0:
		d.DY = -1
	case b&tcell.WheelLeft != 0:
		d.DX = -1
	case b&tcell.WheelRight != 0:
		d.DX = 1
	default:
		return d, false
	}
	return d, true
}

// convertKey converts a tcell key to a logical key.
func convertKey(k tcell.Key) native.Key {
	switch k {
	case tcell.KeyRune:
		return native.KeyCharacter
	case tcell.KeyEscape:
		return native.KeyEscape
	case tcell.KeyEnter:
		return native.KeyEnter
	case tcell.KeyTab:
		return native.KeyTab
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return native.KeyBackspace
	case tcell.KeyDelete:
		return native.KeyDelete
	case tcell.KeyInsert:
		return native.KeyInsert
	case tcell.KeyHome:
		return native.KeyHome
	case tcell.KeyEnd:
		return native.KeyEnd
	case tcell.KeyPgUp:
		return native.KeyPageUp
	case tcell.KeyPgDn:
		return native.KeyPageDown
	case tcell.KeyUp:
		return native.KeyArrowUp
	case tcell.KeyDown:
		return native.KeyArrowDown
	case tcell.KeyLeft:
		return native.KeyArrowLeft
	case tcell.KeyRight:
		return native.KeyArrowRight
	case tcell.KeyF1:
		return native.KeyF1
	case tcell.KeyF2:
		return native.KeyF2
	case tcell.KeyF3:
		return native.KeyF3
	case tcell.KeyF4:
		return native.KeyF4
	case tcell.KeyF5:
		return native.KeyF5
	case tcell.KeyF6:
		return native.KeyF6
	case tcell.KeyF7:
		return native.KeyF7
	case tcell.KeyF8:
		return native.KeyF8
	case tcell.KeyF9:
		return native.KeyF9
	case tcell.KeyF10:
		return native.KeyF10
	case tcell.KeyF11:
		return native.KeyF11
	case tcell.KeyF12:
		return native.KeyF12
	default:
		return native.KeyUnidentified
	}
}

// convertMod converts a tcell modifier mask.
func convertMod(m tcell.ModMask) native.ModifiersState {
	var result native.ModifiersState
	if m&tcell.ModShift != 0 {
		result |= native.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= native.ModControl
	}
	if m&tcell.ModAlt != 0 {
		result |= native.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= native.ModSuper
	}
	return result
}

// cursorStyle picks the terminal cursor shape closest to icon.
func cursorStyle(icon native.CursorIcon) tcell.CursorStyle {
	switch icon {
	case native.CursorText:
		return tcell.CursorStyleSteadyBar
	case native.CursorWait:
		return tcell.CursorStyleBlinkingBlock
	case native.CursorCrosshair:
		return tcell.CursorStyleSteadyUnderline
	default:
		return tcell.CursorStyleSteadyBlock
	}
}
