// Package node runs an MPL engine in real time.
//
// A Node owns one engine, a transport and a clock. Everything that touches the
// engine (inbound packets, fired trickle timers, submissions from the
// application and the periodic lifecycle tick) is funnelled through a single
// run loop, so the engine only ever sees one event at a time.
//
// Node implements a small state machine:
//
//  Joining    -> created, engine not joined yet
//  Forwarding -> joined, run loop processing events
//  Shutdown   -> stopped
//
// A Cluster builds a set of in-memory nodes wired along a topology, which is
// how the command line runs a network in a single process.
package node
