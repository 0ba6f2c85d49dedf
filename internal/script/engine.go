// Package script runs Lua scripts as asyncwin tasks.
//
// A script registers callbacks for window events and timers, then returns.
// The engine keeps running those callbacks until none remain, the script
// calls exit, or the context ends. gopher-lua's LState is not
// goroutine-safe, so every callback runs on the goroutine that called Run;
// event streams and timers are read on helper goroutines and hand their
// occurrences over a channel.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/asyncwin/internal/app"
	"github.com/dshills/asyncwin/internal/logging"
)

// Errors returned by the engine.
var (
	// ErrEngineClosed is returned when running a closed engine.
	ErrEngineClosed = errors.New("script engine closed")

	// ErrEngineBusy is returned when Run is called while already running.
	ErrEngineBusy = errors.New("script engine already running")

	// ErrNoWindow is raised inside Lua when a window function is used by
	// an engine that was created without a window.
	ErrNoWindow = errors.New("script has no window")
)

// Engine executes one Lua script against an event loop and, optionally,
// one of its windows.
type Engine struct {
	L   *lua.LState
	el  *app.EventLoop
	win *app.Window
	log *logging.Logger

	mu      sync.Mutex
	running bool
	closed  bool

	// Fields below belong to the goroutine inside Run.
	ctx     context.Context
	calls   chan call
	wg      sync.WaitGroup
	sources map[int]context.CancelFunc
	nextID  int
	exited  bool
}

// call is a callback invocation handed to the Run goroutine. A call with
// done set reports that source has ended.
type call struct {
	source int
	fn     *lua.LFunction
	args   []lua.LValue
	done   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger that receives print output and errors.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithWindow binds the window functions to w.
func WithWindow(w *app.Window) Option {
	return func(e *Engine) {
		e.win = w
	}
}

// New creates a sandboxed engine for the event loop.
func New(el *app.EventLoop, opts ...Option) *Engine {
	e := &Engine{
		el:  el,
		log: logging.Default().WithComponent("script"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.installAPI()
	return e
}

// RunFile loads and runs the script at path.
func (e *Engine) RunFile(ctx context.Context, path string) error {
	return e.run(ctx, path, func(L *lua.LState) error { return L.DoFile(path) })
}

// RunString loads and runs src. name identifies the chunk in errors.
func (e *Engine) RunString(ctx context.Context, name, src string) error {
	return e.run(ctx, name, func(L *lua.LState) error {
		fn, err := L.Load(strings.NewReader(src), name)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
}

// Close releases the Lua state. It must not be called while Run is active.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	if e.running {
		return ErrEngineBusy
	}
	e.closed = true
	e.L.Close()
	return nil
}

func (e *Engine) run(ctx context.Context, name string, load func(*lua.LState) error) error {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrEngineClosed
	case e.running:
		e.mu.Unlock()
		return ErrEngineBusy
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer e.wg.Wait()
	defer cancel()

	e.ctx = ctx
	e.calls = make(chan call)
	e.sources = make(map[int]context.CancelFunc)
	e.exited = false
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	e.log.Debug("running %s", name)
	if err := e.protect(func() error { return load(e.L) }); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}

	for len(e.sources) > 0 && !e.exited {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-e.calls:
			if c.done {
				if stop, ok := e.sources[c.source]; ok {
					stop()
					delete(e.sources, c.source)
				}
				continue
			}
			if _, live := e.sources[c.source]; !live {
				continue
			}
			if err := e.invoke(c.fn, c.args...); err != nil {
				return fmt.Errorf("script %s: %w", name, err)
			}
		}
	}
	if e.exited {
		// Hold until the loop has taken the exit, otherwise the main task
		// returning first would replace the exit code.
		<-ctx.Done()
	}
	e.log.Debug("%s finished", name)
	return nil
}

func (e *Engine) invoke(fn *lua.LFunction, args ...lua.LValue) error {
	return e.protect(func() error {
		return e.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	})
}

// protect converts a Go panic inside the interpreter into an error.
func (e *Engine) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// spawn starts a callback source. produce runs on its own goroutine and
// delivers values through emit until it returns or its context ends. The
// returned id is what cancel() takes.
func (e *Engine) spawn(fn *lua.LFunction, produce func(ctx context.Context, emit func(...lua.LValue) bool)) int {
	e.nextID++
	id := e.nextID
	ctx, stop := context.WithCancel(e.ctx)
	e.sources[id] = stop

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		emit := func(args ...lua.LValue) bool {
			return e.post(ctx, call{source: id, fn: fn, args: args})
		}
		produce(ctx, emit)
		// Parent context, so a cancelled source still reports completion.
		e.post(e.ctx, call{source: id, done: true})
	}()
	return id
}

func (e *Engine) post(ctx context.Context, c call) bool {
	select {
	case e.calls <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// cancelSource stops a source. Unknown ids are ignored.
func (e *Engine) cancelSource(id int) {
	if stop, ok := e.sources[id]; ok {
		stop()
		delete(e.sources, id)
	}
}
