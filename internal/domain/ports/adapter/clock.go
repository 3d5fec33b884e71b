package adapter

import "time"

// Clock supplies the current time. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location, which also decides
// the monthly ledger bucket.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
