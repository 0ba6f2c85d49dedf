package script

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/asyncwin/internal/event"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/window"
)

// bindings maps the event names accepted by on() to a subscription on the
// engine's window. Each returns the source id.
var bindings = map[string]func(*Engine, *lua.LFunction) int{
	"redraw": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().RedrawRequested, noArgs)
	},
	"close": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().CloseRequested, noArgs)
	},
	"destroyed": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().Destroyed, noArgs)
	},
	"resize": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().Resized, func(s native.PhysicalSize) []lua.LValue {
			return []lua.LValue{lua.LNumber(s.Width), lua.LNumber(s.Height)}
		})
	},
	"move": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().Moved, func(p native.PhysicalPosition) []lua.LValue {
			return []lua.LValue{lua.LNumber(p.X), lua.LNumber(p.Y)}
		})
	},
	"focus": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().Focused, func(f bool) []lua.LValue {
			return []lua.LValue{lua.LBool(f)}
		})
	},
	"char": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().ReceivedCharacter, func(r rune) []lua.LValue {
			return []lua.LValue{lua.LString(string(r))}
		})
	},
	"key": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().KeyboardInput, func(k native.KeyboardInput) []lua.LValue {
			return []lua.LValue{
				lua.LString(keyName(k.Event.Key, k.Event.Text)),
				lua.LBool(k.Event.State == native.Pressed),
			}
		})
	},
	"mouse": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().MouseInput, func(m native.MouseInput) []lua.LValue {
			return []lua.LValue{lua.LString(buttonNames[m.Button]), lua.LBool(m.State == native.Pressed)}
		})
	},
	"cursor": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().CursorMoved, func(c native.CursorMoved) []lua.LValue {
			return []lua.LValue{lua.LNumber(c.Position.X), lua.LNumber(c.Position.Y)}
		})
	},
	"wheel": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().MouseWheel, func(w native.MouseWheel) []lua.LValue {
			return []lua.LValue{lua.LNumber(w.Delta.DX), lua.LNumber(w.Delta.DY)}
		})
	},
	"scale": func(e *Engine, fn *lua.LFunction) int {
		return watch(e, fn, e.win.Events().ScaleFactorChanged, func(s window.ScaleFactorChanged) []lua.LValue {
			return []lua.LValue{lua.LNumber(s.ScaleFactor)}
		})
	},
}

// watch subscribes before returning, so occurrences after the on() call
// are never missed, and forwards each one to fn.
func watch[U, C any](e *Engine, fn *lua.LFunction, h *event.Handler[U, C], args func(C) []lua.LValue) int {
	s := h.Subscribe()
	return e.spawn(fn, func(ctx context.Context, emit func(...lua.LValue) bool) {
		defer s.Close()
		for v := range s.All(ctx) {
			if !emit(args(v)...) {
				return
			}
		}
	})
}

func noArgs(struct{}) []lua.LValue { return nil }
