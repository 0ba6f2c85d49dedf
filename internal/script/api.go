package script

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/timer"
)

// installAPI registers the asyncwin globals:
//
//	on(event, fn) -> id        call fn for each occurrence of a window event
//	after(ms, fn) -> id        call fn once after ms milliseconds
//	every(ms, fn) -> id        call fn every ms milliseconds
//	cancel(id)                 stop a callback registered by on, after or every
//	set_title(s), title() -> s
//	size() -> w, h
//	redraw()
//	exit([code])
//
// print is redirected to the engine's logger.
func (e *Engine) installAPI() {
	funcs := map[string]lua.LGFunction{
		"on":        e.luaOn,
		"after":     e.luaAfter,
		"every":     e.luaEvery,
		"cancel":    e.luaCancel,
		"set_title": e.luaSetTitle,
		"title":     e.luaTitle,
		"size":      e.luaSize,
		"redraw":    e.luaRedraw,
		"exit":      e.luaExit,
		"print":     e.luaPrint,
	}
	for name, fn := range funcs {
		e.L.SetGlobal(name, e.L.NewFunction(fn))
	}
}

func (e *Engine) luaOn(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if e.win == nil {
		L.RaiseError("on(%q): %v", name, ErrNoWindow)
		return 0
	}
	bind, ok := bindings[name]
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown event %q", name))
		return 0
	}
	L.Push(lua.LNumber(bind(e, fn)))
	return 1
}

func (e *Engine) luaAfter(L *lua.LState) int {
	d := checkDuration(L, 1)
	fn := L.CheckFunction(2)
	t := timer.After(e.el.Reactor(), d)
	id := e.spawn(fn, func(ctx context.Context, emit func(...lua.LValue) bool) {
		defer t.Stop()
		if _, err := t.Wait(ctx); err == nil {
			emit()
		}
	})
	L.Push(lua.LNumber(id))
	return 1
}

func (e *Engine) luaEvery(L *lua.LState) int {
	d := checkDuration(L, 1)
	if d <= 0 {
		L.ArgError(1, "period must be positive")
		return 0
	}
	fn := L.CheckFunction(2)
	t := timer.Interval(e.el.Reactor(), d)
	id := e.spawn(fn, func(ctx context.Context, emit func(...lua.LValue) bool) {
		defer t.Stop()
		for range t.Ticks(ctx) {
			if !emit() {
				return
			}
		}
	})
	L.Push(lua.LNumber(id))
	return 1
}

func (e *Engine) luaCancel(L *lua.LState) int {
	e.cancelSource(L.CheckInt(1))
	return 0
}

func (e *Engine) luaSetTitle(L *lua.LState) int {
	title := L.CheckString(1)
	e.window(L)
	if err := e.win.SetTitle(e.ctx, title); err != nil {
		L.RaiseError("set_title: %v", err)
	}
	return 0
}

func (e *Engine) luaTitle(L *lua.LState) int {
	e.window(L)
	title, err := e.win.Title(e.ctx)
	if err != nil {
		L.RaiseError("title: %v", err)
		return 0
	}
	L.Push(lua.LString(title))
	return 1
}

func (e *Engine) luaSize(L *lua.LState) int {
	e.window(L)
	size, err := e.win.InnerSize(e.ctx)
	if err != nil {
		L.RaiseError("size: %v", err)
		return 0
	}
	L.Push(lua.LNumber(size.Width))
	L.Push(lua.LNumber(size.Height))
	return 2
}

func (e *Engine) luaRedraw(L *lua.LState) int {
	e.window(L)
	if err := e.win.RequestRedraw(e.ctx); err != nil {
		L.RaiseError("redraw: %v", err)
	}
	return 0
}

func (e *Engine) luaExit(L *lua.LState) int {
	code := L.OptInt(1, 0)
	e.log.Info("script requested exit with code %d", code)
	e.exited = true
	e.el.Exit(code)
	return 0
}

func (e *Engine) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	e.log.Info("%s", strings.Join(parts, "\t"))
	return 0
}

// window raises ErrNoWindow in Lua when the engine has no window.
func (e *Engine) window(L *lua.LState) {
	if e.win == nil {
		L.RaiseError("%v", ErrNoWindow)
	}
}

// checkDuration reads a millisecond count. Counts too large for a
// time.Duration saturate at the maximum.
func checkDuration(L *lua.LState, n int) time.Duration {
	ms := float64(L.CheckNumber(n))
	if ms < 0 || math.IsNaN(ms) {
		L.ArgError(n, "duration must not be negative")
	}
	ns := ms * float64(time.Millisecond)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// keyName returns the Lua-facing name of a key.
func keyName(k native.Key, text string) string {
	if k == native.KeyCharacter {
		return text
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unidentified"
}

var keyNames = map[native.Key]string{
	native.KeyEscape:     "escape",
	native.KeyEnter:      "enter",
	native.KeyTab:        "tab",
	native.KeyBackspace:  "backspace",
	native.KeyDelete:     "delete",
	native.KeyInsert:     "insert",
	native.KeyHome:       "home",
	native.KeyEnd:        "end",
	native.KeyPageUp:     "pageup",
	native.KeyPageDown:   "pagedown",
	native.KeyArrowUp:    "up",
	native.KeyArrowDown:  "down",
	native.KeyArrowLeft:  "left",
	native.KeyArrowRight: "right",
	native.KeyF1:         "f1",
	native.KeyF2:         "f2",
	native.KeyF3:         "f3",
	native.KeyF4:         "f4",
	native.KeyF5:         "f5",
	native.KeyF6:         "f6",
	native.KeyF7:         "f7",
	native.KeyF8:         "f8",
	native.KeyF9:         "f9",
	native.KeyF10:        "f10",
	native.KeyF11:        "f11",
	native.KeyF12:        "f12",
}

var buttonNames = map[native.MouseButton]string{
	native.MouseLeft:    "left",
	native.MouseRight:   "right",
	native.MouseMiddle:  "middle",
	native.MouseBack:    "back",
	native.MouseForward: "forward",
	native.MouseOther:   "other",
}
