// Package sim runs MPL engines over a simulated lossy mesh.
//
// A Network owns one engine per node of a Topology and a discrete-event
// queue that drives every trickle timer, link delay and lifecycle tick, so a
// run is fully determined by its configuration and random seed. Packets are
// copied between nodes through the net codec and dispatched through a net.Mux,
// exactly as a real transport would. Deliveries are recorded in a store and
// summarised by a Report.
package sim
