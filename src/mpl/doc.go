// Package mpl implements the forwarding logic of a Multicast Protocol for Low
// power and lossy networks (MPL, RFC 7731).
//
// Seeds originate data messages stamped with a seed identity and an increasing
// sequence number. Every forwarder keeps two tables:
//
// - the SeedSet, one entry per known seed with the lower bound of its
// acceptance window (MinSequence) and a freshness lifetime;
//
// - the BufferedSet, a slab of recently accepted messages retained for
// retransmission. Slots are never compacted; an emptied slot is marked invalid
// and reused by a later write, so a pending timer can always find its entry by
// index.
//
// Each buffered message owns a data trickle timer. When it fires the message
// is retransmitted and the timer is re-armed with a random interval until the
// configured number of expirations is reached, after which the entry is
// retired. A single control trickle timer per node periodically multicasts a
// summary of the BufferedSet (one bitmap per seed). Receiving a summary that
// reveals an inconsistency resets the control timer and re-arms data timers
// for messages the peer is missing.
//
// An Engine is not safe for concurrent use. The host must call it from a
// single goroutine, or serialise calls, and must run timer callbacks the same
// way (see the sched package).
package mpl
