package sched

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// ClockScheduler is a Scheduler backed by a clockwork.Clock. Fired callbacks
// are passed to dispatch instead of being run on the clock's goroutine.
type ClockScheduler struct {
	clock    clockwork.Clock
	dispatch func(func())
}

// NewClockScheduler returns a ClockScheduler. A nil dispatch runs callbacks
// directly on the clock's goroutine.
func NewClockScheduler(clock clockwork.Clock, dispatch func(func())) *ClockScheduler {
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &ClockScheduler{
		clock:    clock,
		dispatch: dispatch,
	}
}

// Now implements the Scheduler interface.
func (s *ClockScheduler) Now() time.Time {
	return s.clock.Now()
}

// AfterFunc implements the Scheduler interface.
func (s *ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.clock.AfterFunc(d, func() {
		s.dispatch(f)
	})
}

// Clock returns the underlying clock.
func (s *ClockScheduler) Clock() clockwork.Clock {
	return s.clock
}
