// Package timer provides one-shot and periodic timers driven by the
// reactor's timer wheel.
//
// A Timer can be polled with an explicit reactor.Waker, waited on with a
// context, or ranged over as a sequence of firing instants. A Timer is
// meant to be consumed by one goroutine at a time.
package timer

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/dshills/asyncwin/internal/reactor"
)

// Timer fires at a deadline and, if periodic, at every period after it.
type Timer struct {
	r *reactor.Reactor

	mu       sync.Mutex
	deadline time.Time
	armed    bool
	period   time.Duration

	// id and waker describe the wheel entry; waker is nil when the timer
	// is not registered.
	id    uint64
	waker reactor.Waker

	sig *reactor.Signal
}

// Never returns a timer that never fires and never touches the wheel.
func Never(r *reactor.Reactor) *Timer {
	return &Timer{r: r}
}

// After returns a timer that fires once, d from now. A negative d fires
// immediately, like time.After. If the deadline cannot be represented the
// timer never fires.
func After(r *reactor.Reactor, d time.Duration) *Timer {
	deadline, ok := checkedAdd(r.Now(), max(d, 0))
	if !ok {
		return Never(r)
	}
	return At(r, deadline)
}

// At returns a timer that fires once at deadline.
func At(r *reactor.Reactor, deadline time.Time) *Timer {
	return &Timer{r: r, deadline: deadline, armed: true}
}

// Interval returns a timer that fires every period, starting one period
// from now. It panics if period is not positive.
func Interval(r *reactor.Reactor, period time.Duration) *Timer {
	start, ok := checkedAdd(r.Now(), period)
	if !ok {
		return Never(r)
	}
	return IntervalAt(r, start, period)
}

// IntervalAt returns a timer that fires at start and then every period.
// Once the next deadline overflows the timer stops firing. It panics if
// period is not positive.
func IntervalAt(r *reactor.Reactor, start time.Time, period time.Duration) *Timer {
	if period <= 0 {
		panic("timer: non-positive interval period")
	}
	return &Timer{r: r, deadline: start, armed: true, period: period}
}

// checkedAdd returns t+d, or false if the sum is not representable.
func checkedAdd(t time.Time, d time.Duration) (time.Time, bool) {
	if d < 0 {
		return time.Time{}, false
	}
	u := t.Add(d)
	if u.Sub(t) != d {
		return time.Time{}, false
	}
	return u, true
}

// Poll reports whether the timer has fired. If it has, it returns the
// deadline that passed and, for periodic timers, schedules the next one
// with w. Otherwise it makes sure the wheel will wake w, and only w, once
// the deadline passes.
func (t *Timer) Poll(w reactor.Waker) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armed {
		return time.Time{}, false
	}

	if !t.deadline.After(t.r.Now()) {
		t.deregister()
		fired := t.deadline

		if t.period > 0 {
			if next, ok := checkedAdd(t.deadline, t.period); ok {
				t.deadline = next
				t.register(w)
				return fired, true
			}
		}
		t.armed = false
		return fired, true
	}

	if t.waker != w {
		t.deregister()
		t.register(w)
	}
	return time.Time{}, false
}

func (t *Timer) register(w reactor.Waker) {
	t.id = t.r.InsertTimer(t.deadline, w)
	t.waker = w
}

func (t *Timer) deregister() {
	if t.waker != nil {
		t.r.RemoveTimer(t.deadline, t.id)
		t.waker = nil
	}
}

// Wait blocks until the timer fires and returns the deadline that passed.
// A timer that will never fire again blocks until ctx is done. A wait
// abandoned through ctx leaves nothing in the wheel; the timer stays armed
// and registers again on the next Poll or Wait.
func (t *Timer) Wait(ctx context.Context) (time.Time, error) {
	sig := t.signal()
	for {
		if at, ok := t.Poll(sig); ok {
			return at, nil
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			t.release()
			return time.Time{}, ctx.Err()
		}
	}
}

// Ticks returns the sequence of firing instants. It is infinite for
// periodic timers, holds one item for one-shot timers, and ends early
// when ctx is done.
func (t *Timer) Ticks(ctx context.Context) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for {
			if t.Done() {
				return
			}
			at, err := t.Wait(ctx)
			if err != nil {
				return
			}
			if !yield(at) {
				// A periodic timer registered its next deadline in Poll.
				t.release()
				return
			}
		}
	}
}

// release removes the wheel entry without disarming the timer.
func (t *Timer) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deregister()
}

// Stop deregisters the timer. A stopped timer never fires.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deregister()
	t.armed = false
}

// Deadline returns the next firing instant, if any.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deadline, t.armed
}

// Done reports whether the timer will never fire again.
func (t *Timer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.armed
}

func (t *Timer) signal() *reactor.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sig == nil {
		t.sig = reactor.NewSignal()
	}
	return t.sig
}
