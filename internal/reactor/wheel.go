package reactor

import (
	"fmt"
	"time"

	"github.com/google/btree"
)

// timerEntry is one scheduled wakeup, ordered by (deadline, id).
type timerEntry struct {
	deadline time.Time
	id       uint64
	waker    Waker
}

func timerLess(a, b timerEntry) bool {
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.id < b.id
}

func newWheel() *btree.BTreeG[timerEntry] {
	return btree.NewG(8, timerLess)
}

// timerOp is a staged wheel mutation.
type timerOp struct {
	insert   bool
	deadline time.Time
	id       uint64
	waker    Waker
}

// InsertTimer schedules w to be woken at deadline and returns the entry's
// id. The native loop is notified so it can shorten its wait.
func (r *Reactor) InsertTimer(deadline time.Time, w Waker) uint64 {
	id := r.timerID.Add(1)
	r.stage(timerOp{insert: true, deadline: deadline, id: id, waker: w})
	r.Notify()
	return id
}

// RemoveTimer cancels the entry (deadline, id). Removing an entry that
// already fired or never existed is a no-op.
func (r *Reactor) RemoveTimer(deadline time.Time, id uint64) {
	r.stage(timerOp{deadline: deadline, id: id})
}

// stage pushes op into the staging ring, applying pending ops to the wheel
// whenever the ring is full.
func (r *Reactor) stage(op timerOp) {
	for !r.staging.Enqueue(op) {
		r.timersMu.Lock()
		r.applyTimerOps()
		r.timersMu.Unlock()
	}
}

// applyTimerOps moves at most one ring's worth of staged ops into the
// wheel. Callers hold timersMu.
func (r *Reactor) applyTimerOps() {
	for range r.staging.Cap() {
		op, ok := r.staging.Dequeue()
		if !ok {
			return
		}
		entry := timerEntry{deadline: op.deadline, id: op.id, waker: op.waker}
		if op.insert {
			r.timers.ReplaceOrInsert(entry)
		} else {
			r.timers.Delete(entry)
		}
	}
}

// ProcessTimers applies staged ops, appends the wakers of every entry due
// at or before now to dst, and returns the extended slice together with the
// instant the loop should next wake up. That instant is now if anything
// fired, the earliest remaining deadline otherwise; ok is false when no
// timers remain.
func (r *Reactor) ProcessTimers(dst []Waker) (wakers []Waker, next time.Time, ok bool) {
	r.timersMu.Lock()
	defer r.timersMu.Unlock()

	r.applyTimerOps()
	now := r.clock.Now()

	fired := false
	for {
		e, found := r.timers.Min()
		if !found || e.deadline.After(now) {
			break
		}
		r.timers.DeleteMin()
		dst = append(dst, e.waker)
		fired = true
	}

	if fired {
		return dst, now, true
	}
	if e, found := r.timers.Min(); found {
		return dst, e.deadline, true
	}
	return dst, time.Time{}, false
}

// TimerCount returns the number of entries in the wheel, not counting ops
// still staged.
func (r *Reactor) TimerCount() int {
	r.timersMu.Lock()
	defer r.timersMu.Unlock()
	return r.timers.Len()
}

// WakeAll wakes every waker, isolating panics so one broken waker cannot
// stop the others. It returns the number of wakers that panicked.
func (r *Reactor) WakeAll(wakers []Waker) int {
	failed := 0
	for _, w := range wakers {
		if err := wakeGuarded(w); err != nil {
			failed++
			r.log.Error("waker panicked: %v", err)
		}
	}
	return failed
}

func wakeGuarded(w Waker) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%v", v)
		}
	}()
	w.Wake()
	return nil
}
