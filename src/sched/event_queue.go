package sched

import (
	"container/heap"
	"time"
)

type event struct {
	at    time.Time
	seq   uint64
	f     func()
	index int
	queue *EventQueue
}

// Stop implements the Timer interface.
func (e *event) Stop() bool {
	if e.index < 0 {
		return false
	}
	heap.Remove(&e.queue.events, e.index)
	return true
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x interface{}) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// EventQueue is a discrete-event Scheduler. Time only moves when Step,
// RunUntil or Advance is called.
type EventQueue struct {
	now    time.Time
	seq    uint64
	events eventHeap
}

// NewEventQueue returns an empty queue whose clock reads start.
func NewEventQueue(start time.Time) *EventQueue {
	return &EventQueue{now: start}
}

// Now implements the Scheduler interface.
func (q *EventQueue) Now() time.Time {
	return q.now
}

// AfterFunc implements the Scheduler interface. Negative durations are
// treated as zero.
func (q *EventQueue) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	q.seq++
	e := &event{
		at:    q.now.Add(d),
		seq:   q.seq,
		f:     f,
		queue: q,
	}
	heap.Push(&q.events, e)
	return e
}

// Len returns the number of pending callbacks.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Next returns the time of the earliest pending callback.
func (q *EventQueue) Next() (time.Time, bool) {
	if len(q.events) == 0 {
		return time.Time{}, false
	}
	return q.events[0].at, true
}

// Step pops the earliest callback, moves the clock to its time and runs it.
// It returns false when the queue is empty.
func (q *EventQueue) Step() bool {
	if len(q.events) == 0 {
		return false
	}
	e := heap.Pop(&q.events).(*event)
	if e.at.After(q.now) {
		q.now = e.at
	}
	e.f()
	return true
}

// RunUntil runs every callback scheduled at or before t, including those
// registered while running, then sets the clock to t. It returns the number
// of callbacks run.
func (q *EventQueue) RunUntil(t time.Time) int {
	n := 0
	for len(q.events) > 0 && !q.events[0].at.After(t) {
		q.Step()
		n++
	}
	if t.After(q.now) {
		q.now = t
	}
	return n
}

// Advance is RunUntil(Now() + d).
func (q *EventQueue) Advance(d time.Duration) int {
	return q.RunUntil(q.now.Add(d))
}
