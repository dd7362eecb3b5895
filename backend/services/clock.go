package services

import "time"

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// SystemClock reports wall-clock time in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func orSystem(c Clock) Clock {
	if c == nil {
		return SystemClock
	}
	return c
}
