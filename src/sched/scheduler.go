package sched

import "time"

// Timer is a handle on a scheduled callback.
type Timer interface {
	// Stop withdraws the callback. It returns false if the callback already
	// fired or was already stopped.
	Stop() bool
}

// Scheduler registers one-shot callbacks against a clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}
