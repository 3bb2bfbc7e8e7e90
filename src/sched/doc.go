// Package sched defines the timer interface consumed by the MPL engine and
// provides two implementations of it.
//
// EventQueue is a discrete-event clock. Callbacks fire strictly in
// non-decreasing scheduled time, ties broken by registration order, and only
// when the owner steps the queue. Simulations use it to run many nodes in a
// single goroutine with reproducible results.
//
// ClockScheduler adapts a clockwork.Clock. Expired callbacks are handed to a
// dispatch function, which lets a node funnel them into its own run loop so
// that protocol state is only ever touched from one goroutine.
package sched
