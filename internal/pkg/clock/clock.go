package clock

import (
	"sync"
	"time"
)

// Clocker abstracts time so TOTP counters can be pinned in tests.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// New returns the system clock.
func New() System {
	return System{}
}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a manually driven clock.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// NewFixedUnix returns a clock frozen at the given unix second.
func NewFixedUnix(sec int64) *Fixed {
	return NewFixed(time.Unix(sec, 0).UTC())
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d (or back when d is negative).
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
