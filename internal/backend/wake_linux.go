//go:build linux

package backend

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dshills/asyncwin/internal/native"
)

// eventfdWaker wakes the loop through a non-blocking eventfd. Writes add
// to the counter; a read resets it, so any number of wakeups between two
// waits coalesce into one.
type eventfdWaker struct {
	fd int
}

func newWakeSource() (wakeSource, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, &native.OSError{Op: "eventfd", Err: err}
	}
	return &eventfdWaker{fd: fd}, nil
}

func (e *eventfdWaker) wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(e.fd, buf[:])
		switch err {
		case nil, unix.EAGAIN:
			// EAGAIN means the counter is saturated and already readable.
			return nil
		case unix.EINTR:
			continue
		default:
			return &native.OSError{Op: "eventfd write", Err: err}
		}
	}
}

func (e *eventfdWaker) wait(timeout time.Duration) (bool, error) {
	ms := -1
	if timeout >= 0 {
		// Round up so a sub-millisecond remainder does not turn into a spin.
		d := (timeout + time.Millisecond - 1) / time.Millisecond
		ms = int(min(d, math.MaxInt32))
	}

	fds := []unix.PollFd{{Fd: int32(e.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, &native.OSError{Op: "poll", Err: err}
		}
		if n == 0 {
			return false, nil
		}
		return e.drain()
	}
}

func (e *eventfdWaker) drain() (bool, error) {
	var buf [8]byte
	_, err := unix.Read(e.fd, buf[:])
	switch err {
	case nil:
		return true, nil
	case unix.EAGAIN:
		return false, nil
	default:
		return false, &native.OSError{Op: "eventfd read", Err: err}
	}
}

func (e *eventfdWaker) close() error {
	return unix.Close(e.fd)
}
