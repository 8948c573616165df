// Package clock abstracts the wall clock so picker expiry can be driven by
// hand in tests.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// New returns the system clock, in UTC
func New() Clock {
	return systemClock{}
}

// Lapsed reports whether at least d has passed on c since t
func Lapsed(c Clock, t time.Time, d time.Duration) bool {
	return !c.Now().Before(t.Add(d))
}
