package script

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/asyncwin/internal/app"
	"github.com/dshills/asyncwin/internal/backend"
	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/reactor"
)

func newTestLoop(t *testing.T) (*app.EventLoop, *backend.Null) {
	t.Helper()
	n, err := backend.NewNull(backend.WithNullLogger(logging.Null()))
	require.NoError(t, err)
	r := reactor.New(reactor.WithLogger(logging.Null()))
	return app.NewEventLoop(n, r, app.WithLogger(logging.Null())), n
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// runScript runs src as the main task of a fresh loop.
func runScript(t *testing.T, src string, opts ...Option) (int, error) {
	t.Helper()
	el, _ := newTestLoop(t)
	return el.Run(testContext(t), func(ctx context.Context) error {
		e := New(el, append([]Option{WithLogger(logging.Null())}, opts...)...)
		defer e.Close()
		return e.RunString(ctx, "test", src)
	})
}

func TestPlainScriptFinishes(t *testing.T) {
	code, err := runScript(t, `local x = 1 + 1`)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestAfterThenExit(t *testing.T) {
	code, err := runScript(t, `after(10, function() exit(7) end)`)
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestAfterHugeDelaySaturates(t *testing.T) {
	code, err := runScript(t, `
after(1e20, function() exit(1) end)
after(5, function() exit(3) end)
`)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestEveryUntilCancelled(t *testing.T) {
	el, _ := newTestLoop(t)
	var ticks lua.LValue

	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		e := New(el, WithLogger(logging.Null()))
		defer e.Close()
		err := e.RunString(ctx, "every", `
n = 0
local id
id = every(5, function()
  n = n + 1
  if n == 3 then cancel(id) end
end)
`)
		ticks = e.L.GetGlobal("n")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(3), ticks)
}

func TestRedrawCallback(t *testing.T) {
	el, n := newTestLoop(t)
	var id native.WindowID

	code, err := el.Run(testContext(t), func(ctx context.Context) error {
		w, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		if err != nil {
			return err
		}
		id = w.ID()
		e := New(el, WithWindow(w), WithLogger(logging.Null()))
		defer e.Close()
		return e.RunString(ctx, "redraw", `
on("redraw", function()
  set_title("drawn")
  exit(3)
end)
redraw()
`)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	w, ok := n.Window(id)
	require.True(t, ok)
	assert.Equal(t, "drawn", w.Title())
}

func TestResizeCallback(t *testing.T) {
	el, n := newTestLoop(t)
	var title string

	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		w, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		if err != nil {
			return err
		}
		e := New(el, WithWindow(w), WithLogger(logging.Null()))
		defer e.Close()

		// poke resizes the window from inside the script, after on() has
		// subscribed.
		e.L.SetGlobal("poke", e.L.NewFunction(func(L *lua.LState) int {
			if err := n.Resize(w.ID(), native.PhysicalSize{Width: 1024, Height: 768}); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		}))

		err = e.RunString(ctx, "resize", `
local id
id = on("resize", function(w, h)
  set_title(w .. "x" .. h)
  cancel(id)
end)
poke()
`)
		if err != nil {
			return err
		}
		title, err = w.Title(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "1024x768", title)
}

func TestSizeAndTitle(t *testing.T) {
	el, _ := newTestLoop(t)

	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		attrs := native.DefaultWindowAttributes()
		attrs.Title = "start"
		attrs.InnerSize = &native.PhysicalSize{Width: 320, Height: 200}
		w, err := el.CreateWindow(ctx, attrs)
		if err != nil {
			return err
		}
		e := New(el, WithWindow(w), WithLogger(logging.Null()))
		defer e.Close()
		return e.RunString(ctx, "query", `
local w, h = size()
assert(w == 320 and h == 200, "size " .. w .. "x" .. h)
assert(title() == "start")
`)
	})
	require.NoError(t, err)
}

func TestWindowFunctionsNeedWindow(t *testing.T) {
	_, err := runScript(t, `on("close", function() end)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNoWindow.Error())

	_, err = runScript(t, `set_title("x")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNoWindow.Error())
}

func TestUnknownEvent(t *testing.T) {
	el, _ := newTestLoop(t)
	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		w, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		if err != nil {
			return err
		}
		e := New(el, WithWindow(w), WithLogger(logging.Null()))
		defer e.Close()
		return e.RunString(ctx, "unknown", `on("teleport", function() end)`)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestCallbackErrorStopsScript(t *testing.T) {
	_, err := runScript(t, `after(1, function() error("bad callback") end)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad callback")
}

func TestEveryRejectsZeroPeriod(t *testing.T) {
	_, err := runScript(t, `every(0, function() end)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period must be positive")
}

func TestSandbox(t *testing.T) {
	_, err := runScript(t, `
assert(io == nil, "io")
assert(os == nil, "os")
assert(debug == nil, "debug")
assert(dofile == nil and loadfile == nil and load == nil, "loaders")
assert(string.upper("a") == "A")
assert(math.max(1, 2) == 2)
`)
	require.NoError(t, err)

	_, err = runScript(t, `os.exit(1)`)
	assert.Error(t, err)
}

func TestPrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})

	_, err := runScript(t, `print("hello", "lua")`, WithLogger(log))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "lua")
}

func TestClosedEngine(t *testing.T) {
	el, _ := newTestLoop(t)
	e := New(el, WithLogger(logging.Null()))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.RunString(context.Background(), "x", "return"), ErrEngineClosed)
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "q", keyName(native.KeyCharacter, "q"))
	assert.Equal(t, "escape", keyName(native.KeyEscape, ""))
	assert.Equal(t, "f12", keyName(native.KeyF12, ""))
	assert.Equal(t, "unidentified", keyName(native.KeyUnidentified, ""))
}
