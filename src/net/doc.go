// Package net carries MPL messages between nodes.
//
// Messages travel inside a Packet addressed to the ALL_MPL_FORWARDERS
// multicast scope and tagged with the MPL option number. Packets are
// serialised with msgpack, so every receiver works on its own copy.
//
// A Transport multicasts packets to the neighbours of a node and exposes
// received packets on a channel. InmemTransport is the in-memory
// implementation: neighbours are connected explicitly and a packet arriving on
// a full queue is dropped, as on a lossy radio link.
//
// On the receiving side a Mux routes packets to the handler registered for
// their option. RegisterEngine binds the MPL option to the inbound entry
// points of an engine. On the sending side an Outbox wraps the messages built
// by an engine into packets.
package net
