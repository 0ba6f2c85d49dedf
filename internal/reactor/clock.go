package reactor

import "time"

// Clock supplies the current instant to the timer wheel.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock with its monotonic reading.
var SystemClock Clock = ClockFunc(time.Now)
