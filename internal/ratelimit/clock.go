package ratelimit

import "time"

// Clock supplies the instants used for admission decisions and expiry.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the current instant.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock returns a Clock backed by time.Now, which carries a monotonic reading.
func SystemClock() Clock {
	return ClockFunc(time.Now)
}
