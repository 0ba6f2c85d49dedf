package reactor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/asyncwin/internal/logging"
	"github.com/dshills/asyncwin/internal/native"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type namedWaker struct {
	name  string
	woken atomic.Int32
}

func (w *namedWaker) Wake() { w.woken.Add(1) }

type panicWaker struct{}

func (*panicWaker) Wake() { panic("bad waker") }

type countingProxy struct {
	n atomic.Int32
}

func (p *countingProxy) Wakeup() error {
	p.n.Add(1)
	return nil
}

func newTestReactor(t *testing.T, opts ...Option) (*Reactor, *manualClock) {
	t.Helper()
	clock := newManualClock()
	opts = append([]Option{WithClock(clock), WithLogger(logging.Null())}, opts...)
	return New(opts...), clock
}

func names(ws []Waker) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.(*namedWaker).name)
	}
	return out
}

func TestTimersFireInDeadlineThenInsertionOrder(t *testing.T) {
	r, clock := newTestReactor(t)
	base := clock.Now()

	r.InsertTimer(base.Add(30*time.Millisecond), &namedWaker{name: "c"})
	r.InsertTimer(base.Add(10*time.Millisecond), &namedWaker{name: "a1"})
	r.InsertTimer(base.Add(10*time.Millisecond), &namedWaker{name: "a2"})
	r.InsertTimer(base.Add(20*time.Millisecond), &namedWaker{name: "b"})
	r.InsertTimer(base.Add(10*time.Millisecond), &namedWaker{name: "a3"})

	clock.Advance(time.Second)
	wakers, next, ok := r.ProcessTimers(nil)
	require.True(t, ok)
	assert.Equal(t, clock.Now(), next)
	assert.Equal(t, []string{"a1", "a2", "a3", "b", "c"}, names(wakers))
	assert.Equal(t, 0, r.TimerCount())
}

func TestProcessTimersReportsNextDeadline(t *testing.T) {
	r, clock := newTestReactor(t)

	_, _, ok := r.ProcessTimers(nil)
	assert.False(t, ok)

	deadline := clock.Now().Add(50 * time.Millisecond)
	r.InsertTimer(deadline, &namedWaker{name: "x"})

	wakers, next, ok := r.ProcessTimers(nil)
	require.True(t, ok)
	assert.Empty(t, wakers)
	assert.Equal(t, deadline, next)

	clock.Advance(50 * time.Millisecond)
	wakers, next, ok = r.ProcessTimers(wakers)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, names(wakers))
	assert.Equal(t, clock.Now(), next)
}

func TestRemovedTimerNeverFires(t *testing.T) {
	r, clock := newTestReactor(t)
	deadline := clock.Now().Add(time.Millisecond)

	keep := r.InsertTimer(deadline, &namedWaker{name: "keep"})
	drop := r.InsertTimer(deadline, &namedWaker{name: "drop"})
	require.NotEqual(t, keep, drop)
	r.RemoveTimer(deadline, drop)

	clock.Advance(time.Second)
	wakers, _, _ := r.ProcessTimers(nil)
	assert.Equal(t, []string{"keep"}, names(wakers))

	r.RemoveTimer(deadline, keep)
	wakers, _, ok := r.ProcessTimers(nil)
	assert.Empty(t, wakers)
	assert.False(t, ok)
}

func TestStagingBurstAboveCapacityLosesNothing(t *testing.T) {
	r, clock := newTestReactor(t, WithTimerQueueCapacity(4))
	deadline := clock.Now().Add(time.Millisecond)

	const producers, perProducer = 8, 64
	var g errgroup.Group
	for p := range producers {
		g.Go(func() error {
			for i := range perProducer {
				id := r.InsertTimer(deadline, &namedWaker{name: "t"})
				if i%2 == 1 && p%2 == 1 {
					r.RemoveTimer(deadline, id)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	clock.Advance(time.Second)
	wakers, _, _ := r.ProcessTimers(nil)
	removed := (producers / 2) * (perProducer / 2)
	assert.Len(t, wakers, producers*perProducer-removed)
}

func TestInsertTimerNotifiesRemoveDoesNot(t *testing.T) {
	r, clock := newTestReactor(t)
	proxy := &countingProxy{}
	r.SetProxy(proxy)
	r.SetProxy(&countingProxy{})

	deadline := clock.Now().Add(time.Second)
	id := r.InsertTimer(deadline, &namedWaker{})
	assert.Equal(t, int32(1), proxy.n.Load())

	r.RemoveTimer(deadline, id)
	assert.Equal(t, int32(1), proxy.n.Load())
}

func TestWakeAllIsolatesPanics(t *testing.T) {
	r, _ := newTestReactor(t)
	a, b := &namedWaker{}, &namedWaker{}

	failed := r.WakeAll([]Waker{a, &panicWaker{}, b})
	assert.Equal(t, 1, failed)
	assert.Equal(t, int32(1), a.woken.Load())
	assert.Equal(t, int32(1), b.woken.Load())
}

func TestExitRequestLastWriterWins(t *testing.T) {
	r, _ := newTestReactor(t)
	proxy := &countingProxy{}
	r.SetProxy(proxy)

	_, ok := r.ExitRequested()
	assert.False(t, ok)

	r.RequestExit(42)
	code, ok := r.ExitRequested()
	require.True(t, ok)
	assert.Equal(t, 42, code)

	r.RequestExit(-3)
	code, _ = r.ExitRequested()
	assert.Equal(t, -3, code)
	assert.Equal(t, int32(2), proxy.n.Load())
}

func TestEventsForRemovedWindowAreDropped(t *testing.T) {
	r, _ := newTestReactor(t)
	id := native.NewWindowID()
	reg := r.InsertWindow(id)
	moved := reg.Moved.Subscribe()

	ev := native.WindowEvent{Window: id, Payload: native.Moved{Position: native.PhysicalPosition{X: 1, Y: 2}}}
	require.NoError(t, r.PostEvent(ev, nil))
	assert.Equal(t, 1, moved.Len())

	r.RemoveWindow(id)
	require.NoError(t, r.PostEvent(ev, nil))
	assert.Equal(t, 1, moved.Len())
	assert.Equal(t, uint64(1), r.Stats().EventsDropped)
}

func TestDestroyedRemovesWindowAfterBroadcast(t *testing.T) {
	r, _ := newTestReactor(t)
	id := native.NewWindowID()
	reg := r.InsertWindow(id)

	seen := false
	_, err := reg.Destroyed.Hook(func(struct{}, any) {
		_, still := r.Window(id)
		seen = still
	})
	require.NoError(t, err)

	require.NoError(t, r.PostEvent(native.WindowEvent{Window: id, Payload: native.Destroyed{}}, nil))
	assert.True(t, seen)
	assert.Equal(t, 0, r.WindowCount())
}

func TestLifecycleEvents(t *testing.T) {
	r, _ := newTestReactor(t)
	resumed := r.Lifecycle().Resumed.Subscribe()
	suspended := r.Lifecycle().Suspended.Subscribe()

	require.NoError(t, r.PostEvent(native.Resumed{}, nil))
	require.NoError(t, r.PostEvent(native.Suspended{}, nil))
	require.NoError(t, r.PostEvent(native.AboutToWait{}, nil))
	require.NoError(t, r.PostEvent(native.DeviceEvent{}, nil))

	assert.Equal(t, 1, resumed.Len())
	assert.Equal(t, 1, suspended.Len())
	assert.Equal(t, uint64(2), r.Stats().EventsPosted)
}

func TestStatsCountsStagedTimerOps(t *testing.T) {
	r, clock := newTestReactor(t)
	w := &namedWaker{name: "a"}

	id := r.InsertTimer(clock.Now().Add(time.Second), w)
	r.RemoveTimer(clock.Now().Add(time.Second), id)
	assert.Equal(t, 2, r.Stats().TimerOpsStaged)
	assert.Equal(t, 0, r.Stats().Timers)

	r.ProcessTimers(nil)
	assert.Equal(t, 0, r.Stats().TimerOpsStaged)
	assert.Equal(t, 0, r.Stats().Timers)
}
