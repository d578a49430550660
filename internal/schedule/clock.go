package schedule

import "time"

// Clock supplies "today" to code that compares dates against the present.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the clock's current calendar day.
func Today(c Clock) time.Time {
	return Day(c.Now())
}
