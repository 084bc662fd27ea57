package clock

import "time"

// Clock is the time source for turn deadlines, avatar windows and game
// timestamps. Tests swap in mocks.MockClock to step time by hand.
type Clock interface {
	Now() time.Time
}

// UTC reads the system clock. Every time it returns is in UTC.
type UTC struct{}

// New returns the system clock
func New() Clock {
	return UTC{}
}

func (UTC) Now() time.Time {
	return time.Now().UTC()
}
