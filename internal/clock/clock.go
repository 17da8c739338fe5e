// Package clock abstracts wall-clock time so that lock expiry and booking
// timeouts can be tested deterministically instead of sleeping.
package clock

import "time"

// Clock supplies the current time.  All implementations return UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a clock pinned to a settable instant; tests advance it to
// simulate expiry.
type Fixed struct {
	now time.Time
}

// NewFixed returns a clock that reports the given instant until advanced.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// Set pins the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.now = t.UTC()
}
