// Package clock provides the time source used by executors and venues.
//
// All deadline math in the controller goes through a Clock so the same
// code runs against wall time in live mode and against a simulated
// timeline in tests, without wall-clock sleeps.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current logical timestamp.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

// NewSystem returns a wall-clock Clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current wall-clock time.
func (s *System) Now() time.Time {
	return time.Now()
}

// Simulated is a Clock whose time only moves when told to.
// Safe for concurrent use.
type Simulated struct {
	mu  sync.RWMutex
	now time.Time
}

// NewSimulated returns a simulated Clock starting at the given time.
func NewSimulated(start time.Time) *Simulated {
	return &Simulated{now: start}
}

// Now returns the current simulated time.
func (s *Simulated) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// Advance moves the simulated time forward by d and returns the new time.
func (s *Simulated) Advance(d time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
	return s.now
}

// Set moves the simulated time to t. Time never moves backward; a t
// earlier than the current simulated time is ignored.
func (s *Simulated) Set(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.now) {
		s.now = t
	}
}

var (
	_ Clock = (*System)(nil)
	_ Clock = (*Simulated)(nil)
)
