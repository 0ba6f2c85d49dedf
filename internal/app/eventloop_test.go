package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/asyncwin/internal/backend"
	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
	"github.com/dshills/asyncwin/internal/reactor"
	"github.com/dshills/asyncwin/internal/timer"
)

func newTestLoop(t *testing.T) (*EventLoop, *backend.Null) {
	t.Helper()
	n, err := backend.NewNull(backend.WithNullLogger(logging.Null()))
	require.NoError(t, err)
	r := reactor.New(reactor.WithLogger(logging.Null()))
	return NewEventLoop(n, r, WithLogger(logging.Null())), n
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunReturnsMainResult(t *testing.T) {
	el, _ := newTestLoop(t)
	errBoom := errors.New("boom")

	code, err := el.Run(testContext(t), func(context.Context) error {
		return errBoom
	})
	assert.Equal(t, 0, code)
	assert.ErrorIs(t, err, errBoom)
}

func TestRunNilMain(t *testing.T) {
	el, _ := newTestLoop(t)
	_, err := el.Run(testContext(t), nil)
	assert.ErrorIs(t, err, ErrNilMain)
}

func TestRunMainPanics(t *testing.T) {
	el, _ := newTestLoop(t)

	_, err := el.Run(testContext(t), func(context.Context) error {
		panic("kaboom")
	})
	require.ErrorIs(t, err, ErrMainPanicked)

	var rp *RecoveredPanicError
	require.ErrorAs(t, err, &rp)
	assert.Equal(t, "kaboom", rp.Value)
	assert.NotEmpty(t, rp.Stack)
}

func TestRunExitCode(t *testing.T) {
	el, _ := newTestLoop(t)

	mainCancelled := make(chan struct{})
	code, err := el.Run(testContext(t), func(ctx context.Context) error {
		el.Exit(42)
		<-ctx.Done()
		close(mainCancelled)
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, 42, code)

	select {
	case <-mainCancelled:
	case <-time.After(time.Second):
		t.Fatal("main task context was not cancelled")
	}
}

func TestRunContextCancelled(t *testing.T) {
	el, _ := newTestLoop(t)
	ctx, cancel := context.WithTimeout(testContext(t), 20*time.Millisecond)
	defer cancel()

	_, err := el.Run(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunTimerWakesMain(t *testing.T) {
	el, _ := newTestLoop(t)

	var elapsed time.Duration
	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		start := time.Now()
		if _, err := timer.After(el.Reactor(), 30*time.Millisecond).Wait(ctx); err != nil {
			return err
		}
		elapsed = time.Since(start)
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.GreaterOrEqual(t, el.Metrics().Snapshot().TimersFired, uint64(1))
}

func TestCreateWindowOps(t *testing.T) {
	el, n := newTestLoop(t)

	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		w, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		if err != nil {
			return err
		}
		if _, ok := el.Reactor().Window(w.ID()); !ok {
			return errors.New("window not registered")
		}

		if err := w.SetTitle(ctx, "hello"); err != nil {
			return err
		}
		title, err := w.Title(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, "hello", title)

		visible, known, err := w.Visible(ctx)
		if err != nil {
			return err
		}
		assert.True(t, visible)
		assert.True(t, known)

		assert.ErrorIs(t, w.Drag(ctx), native.ErrNotSupported)

		mon, ok, err := el.PrimaryMonitor(ctx)
		if err != nil {
			return err
		}
		assert.True(t, ok)
		assert.Equal(t, backend.DefaultMonitor, mon)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, n.Windows(), 1)
}

func TestWindowEventsReachTasks(t *testing.T) {
	el, n := newTestLoop(t)
	want := native.PhysicalSize{Width: 1024, Height: 768}

	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		w, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		if err != nil {
			return err
		}

		resized := w.Events().Resized.Subscribe()
		defer resized.Close()
		if err := n.Resize(w.ID(), want); err != nil {
			return err
		}
		got, err := resized.Next(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, want, got)

		size, err := w.InnerSize(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, want, size)
		return nil
	})
	require.NoError(t, err)
}

func TestCloseWindowUnregisters(t *testing.T) {
	el, n := newTestLoop(t)

	_, err := el.Run(testContext(t), func(ctx context.Context) error {
		w, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		if err != nil {
			return err
		}

		closeReq := w.Events().CloseRequested.Subscribe()
		destroyed := w.Events().Destroyed.Subscribe()
		if err := n.CloseWindow(w.ID()); err != nil {
			return err
		}
		if _, err := closeReq.Next(ctx); err != nil {
			return err
		}
		if _, err := destroyed.Next(ctx); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, el.Reactor().WindowCount())
}

func TestCreateWindowAbandonedBeforeDrain(t *testing.T) {
	el, n := newTestLoop(t)
	r := el.Reactor()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := el.CreateWindow(ctx, native.DefaultWindowAttributes())
		errc <- err
	}()

	require.Eventually(t, func() bool { return r.Stats().OpsQueued == 1 },
		time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	assert.Equal(t, 1, r.DrainLoopQueue(n))
	assert.Empty(t, n.Windows())
	assert.Equal(t, 0, r.WindowCount())
}

func TestRunTwiceConcurrently(t *testing.T) {
	el, _ := newTestLoop(t)

	started := make(chan struct{})
	release := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		_, err := el.Run(testContext(t), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
		errc <- err
	}()

	<-started
	_, err := el.Run(testContext(t), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	assert.NoError(t, <-errc)
}
