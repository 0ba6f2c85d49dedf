package app

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/reactor"
)

// MainFunc is the application's main task. It runs on its own goroutine
// while the calling goroutine drives the native loop.
type MainFunc func(ctx context.Context) error

// EventLoop glues a native loop to a reactor.
type EventLoop struct {
	loop    native.Loop
	reactor *reactor.Reactor
	log     *logging.Logger
	metrics *Metrics

	running atomic.Bool
}

// Option configures an EventLoop.
type Option func(*EventLoop)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(el *EventLoop) {
		if l != nil {
			el.log = l
		}
	}
}

// WithMetrics shares a metrics tracker with the caller.
func WithMetrics(m *Metrics) Option {
	return func(el *EventLoop) {
		if m != nil {
			el.metrics = m
		}
	}
}

// NewEventLoop creates an EventLoop driving loop on behalf of r.
func NewEventLoop(loop native.Loop, r *reactor.Reactor, opts ...Option) *EventLoop {
	el := &EventLoop{
		loop:    loop,
		reactor: r,
		log:     logging.Default(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(el)
	}
	el.log = el.log.WithComponent("loop")
	return el
}

// Reactor returns the reactor the loop drives.
func (el *EventLoop) Reactor() *reactor.Reactor {
	return el.reactor
}

// Metrics returns the loop metrics.
func (el *EventLoop) Metrics() *Metrics {
	return el.metrics
}

// Exit asks the loop to stop with code. Run then returns code unless the
// main task finishes first.
func (el *EventLoop) Exit(code int) {
	el.reactor.RequestExit(code)
}

// Run drives the native loop on the calling goroutine, locked to its OS
// thread, while main runs on a separate goroutine. It returns when main
// returns, yielding main's error with code 0, or when an exit has been
// requested, yielding the requested code. The main task's context is
// cancelled when Run returns.
func (el *EventLoop) Run(ctx context.Context, main MainFunc) (code int, err error) {
	if main == nil {
		return 0, ErrNilMain
	}
	if !el.running.CompareAndSwap(false, true) {
		return 0, ErrAlreadyRunning
	}
	defer el.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	el.reactor.SetProxy(el.loop.Proxy())

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, el.reactor.Notify)
	defer stop()

	done := make(chan struct{})
	var mainErr error
	go func() {
		defer el.reactor.Notify()
		defer close(done)
		mainErr = runMain(taskCtx, main)
	}()

	d := &driver{el: el, done: done, ctx: ctx}
	el.log.Info("event loop started")
	loopErr := el.loop.Run(d.handle)

	switch {
	case d.finished:
		el.log.Info("main task returned")
		return 0, mainErr
	case d.exited:
		el.log.Info("event loop exited with code %d", d.code)
		return d.code, nil
	case loopErr != nil:
		return 0, loopErr
	default:
		return 0, ctx.Err()
	}
}

func runMain(ctx context.Context, main MainFunc) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &RecoveredPanicError{Value: v, Stack: string(debug.Stack())}
		}
	}()
	return main(ctx)
}

// driver is the per-Run state of the loop callback. It is only touched on
// the loop thread.
type driver struct {
	el     *EventLoop
	ctx    context.Context
	done   <-chan struct{}
	wakers []reactor.Waker

	finished bool
	exited   bool
	code     int
}

func (d *driver) handle(ev native.Event, target native.Target, cf *native.ControlFlow) {
	switch ev.(type) {
	case native.AboutToWait:
		d.aboutToWait(target, cf)
	case native.NewEvents, native.Wakeup, native.LoopExiting:
	default:
		start := time.Now()
		err := d.el.reactor.PostEvent(ev, nil)
		d.el.metrics.RecordEvent(time.Since(start), err)
		if err != nil {
			d.el.log.Warn("event listener failed: %v", err)
		}
	}
}

// aboutToWait runs queued operations, fires due timers and decides how the
// loop should wait.
func (d *driver) aboutToWait(target native.Target, cf *native.ControlFlow) {
	r := d.el.reactor
	start := time.Now()

	ran := r.DrainLoopQueue(target)

	var next time.Time
	var pending bool
	d.wakers, next, pending = r.ProcessTimers(d.wakers[:0])
	fired := len(d.wakers)
	if panics := r.WakeAll(d.wakers); panics > 0 {
		d.el.metrics.RecordWakerPanics(panics)
	}
	clear(d.wakers)

	d.el.metrics.RecordIteration(time.Since(start), ran, fired)

	select {
	case <-d.done:
		d.finished = true
		cf.SetExit(0)
		return
	default:
	}
	if code, ok := r.ExitRequested(); ok {
		d.exited = true
		d.code = code
		cf.SetExit(code)
		return
	}
	if d.ctx.Err() != nil {
		cf.SetExit(0)
		return
	}

	switch {
	case r.OpsLen() > 0:
		cf.SetPoll()
	case pending:
		cf.SetWaitUntil(next)
	default:
		cf.SetWait()
	}
}
