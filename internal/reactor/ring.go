package reactor

import "sync/atomic"

// ring is a bounded lock-free MPMC queue (Vyukov). Enqueue fails instead
// of blocking when the ring is full.
type ring[T any] struct {
	head  atomic.Uint64
	_     [56]byte
	tail  atomic.Uint64
	_     [56]byte
	mask  uint64
	cells []ringCell[T]
}

type ringCell[T any] struct {
	seq  atomic.Uint64
	data T
}

// newRing allocates a ring holding at least size items, rounded up to a
// power of two.
func newRing[T any](size int) *ring[T] {
	n := uint64(2)
	for n < uint64(size) {
		n <<= 1
	}
	r := &ring[T]{
		mask:  n - 1,
		cells: make([]ringCell[T], n),
	}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

// Enqueue adds item; it returns false if the ring is full.
func (r *ring[T]) Enqueue(item T) bool {
	for {
		tail := r.tail.Load()
		c := &r.cells[tail&r.mask]
		dif := int64(c.seq.Load()) - int64(tail)

		switch {
		case dif == 0:
			if r.tail.CompareAndSwap(tail, tail+1) {
				c.data = item
				c.seq.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false
		}
	}
}

// Dequeue removes the oldest item; ok is false if the ring is empty.
func (r *ring[T]) Dequeue() (item T, ok bool) {
	for {
		head := r.head.Load()
		c := &r.cells[head&r.mask]
		dif := int64(c.seq.Load()) - int64(head+1)

		switch {
		case dif == 0:
			if r.head.CompareAndSwap(head, head+1) {
				item = c.data
				var zero T
				c.data = zero
				c.seq.Store(head + r.mask + 1)
				return item, true
			}
		case dif < 0:
			return item, false
		}
	}
}

// Len returns the number of queued items. Under concurrent use it is a
// snapshot; head is read first so the result is never negative.
func (r *ring[T]) Len() int {
	head := r.head.Load()
	return int(r.tail.Load() - head)
}

// Cap returns the fixed capacity.
func (r *ring[T]) Cap() int {
	return len(r.cells)
}
