package sched

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestClockSchedulerDispatch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dispatchCh := make(chan func(), 1)

	s := NewClockScheduler(clock, func(f func()) { dispatchCh <- f })

	fired := make(chan struct{}, 1)
	s.AfterFunc(time.Second, func() { fired <- struct{}{} })

	clock.Advance(time.Second)

	select {
	case f := <-dispatchCh:
		f()
	case <-time.After(time.Second):
		t.Fatalf("callback was not dispatched")
	}

	select {
	case <-fired:
	default:
		t.Fatalf("dispatched callback did not run")
	}
}

func TestClockSchedulerStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dispatchCh := make(chan func(), 1)

	s := NewClockScheduler(clock, func(f func()) { dispatchCh <- f })

	timer := s.AfterFunc(time.Second, func() {})
	if !timer.Stop() {
		t.Fatalf("Stop on a pending timer should return true")
	}

	clock.Advance(2 * time.Second)

	select {
	case <-dispatchCh:
		t.Fatalf("stopped timer was dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClockSchedulerNow(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	s := NewClockScheduler(clock, nil)
	clock.Advance(time.Minute)

	if !s.Now().Equal(start.Add(time.Minute)) {
		t.Fatalf("Now = %v, want %v", s.Now(), start.Add(time.Minute))
	}
}
