//go:build !linux

package backend

import "time"

// chanWaker is the portable wake source: a one-slot channel.
type chanWaker struct {
	ch chan struct{}
}

func newWakeSource() (wakeSource, error) {
	return &chanWaker{ch: make(chan struct{}, 1)}, nil
}

func (c *chanWaker) wake() error {
	select {
	case c.ch <- struct{}{}:
	default:
	}
	return nil
}

func (c *chanWaker) wait(timeout time.Duration) (bool, error) {
	if timeout < 0 {
		<-c.ch
		return true, nil
	}
	if timeout == 0 {
		select {
		case <-c.ch:
			return true, nil
		default:
			return false, nil
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-c.ch:
		return true, nil
	case <-t.C:
		return false, nil
	}
}

func (c *chanWaker) close() error { return nil }
