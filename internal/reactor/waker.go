package reactor

// Waker resumes a suspended task. Implementations must be comparable, since
// timers re-register when polled with a different waker, and Wake must not
// block.
type Waker interface {
	Wake()
}

// Signal is the standard Waker: a one-slot channel that coalesces wakes.
// The zero value is not usable; create one with NewSignal.
type Signal struct {
	ch chan struct{}
}

// NewSignal creates a Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Wake marks the signal as raised.
func (s *Signal) Wake() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives once per raised wake.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}
