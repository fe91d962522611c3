package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests and previews can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source behind Now. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current local wall-clock reading.
func Now() ClockReading {
	return NewClockReading(clock.Now())
}

// Clock returns the current time source.
func Clock() clockwork.Clock {
	return clock
}
