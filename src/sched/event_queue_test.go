package sched

import (
	"reflect"
	"testing"
	"time"
)

var epoch = time.Unix(0, 0)

func TestEventQueueOrder(t *testing.T) {
	q := NewEventQueue(epoch)

	var fired []string
	record := func(name string) func() {
		return func() { fired = append(fired, name) }
	}

	q.AfterFunc(3*time.Second, record("c"))
	q.AfterFunc(1*time.Second, record("a1"))
	q.AfterFunc(1*time.Second, record("a2"))
	q.AfterFunc(2*time.Second, record("b"))

	if n := q.RunUntil(epoch.Add(10 * time.Second)); n != 4 {
		t.Fatalf("RunUntil ran %d callbacks, want 4", n)
	}

	want := []string{"a1", "a2", "b", "c"}
	if !reflect.DeepEqual(fired, want) {
		t.Fatalf("fired %v, want %v", fired, want)
	}

	if !q.Now().Equal(epoch.Add(10 * time.Second)) {
		t.Fatalf("Now = %v, want epoch+10s", q.Now())
	}
}

func TestEventQueueStop(t *testing.T) {
	q := NewEventQueue(epoch)

	fired := false
	timer := q.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatalf("first Stop should return true")
	}
	if timer.Stop() {
		t.Fatalf("second Stop should return false")
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}

	q.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped callback fired")
	}
}

func TestEventQueueStopAfterFire(t *testing.T) {
	q := NewEventQueue(epoch)

	timer := q.AfterFunc(time.Second, func() {})
	q.Advance(time.Second)

	if timer.Stop() {
		t.Fatalf("Stop after fire should return false")
	}
}

func TestEventQueueNestedScheduling(t *testing.T) {
	q := NewEventQueue(epoch)

	var at []time.Duration
	var tick func()
	tick = func() {
		at = append(at, q.Now().Sub(epoch))
		if len(at) < 3 {
			q.AfterFunc(time.Second, tick)
		}
	}
	q.AfterFunc(time.Second, tick)

	q.Advance(5 * time.Second)

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if !reflect.DeepEqual(at, want) {
		t.Fatalf("fired at %v, want %v", at, want)
	}
}

func TestEventQueueStopFromCallback(t *testing.T) {
	q := NewEventQueue(epoch)

	fired := false
	later := q.AfterFunc(2*time.Second, func() { fired = true })
	q.AfterFunc(time.Second, func() { later.Stop() })

	q.Advance(3 * time.Second)
	if fired {
		t.Fatalf("callback stopped by an earlier callback still fired")
	}
}

func TestEventQueueNext(t *testing.T) {
	q := NewEventQueue(epoch)

	if _, ok := q.Next(); ok {
		t.Fatalf("empty queue should have no next event")
	}

	q.AfterFunc(-time.Second, func() {})
	next, ok := q.Next()
	if !ok || !next.Equal(epoch) {
		t.Fatalf("Next = %v,%v want epoch,true", next, ok)
	}

	if !q.Step() {
		t.Fatalf("Step should run the pending callback")
	}
	if q.Step() {
		t.Fatalf("Step on an empty queue should return false")
	}
}
