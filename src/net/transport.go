package net

// Sender multicasts packets to the neighbours of a node.
type Sender interface {
	Multicast(p *Packet) error
}

// Transport provides an interface for network transports to allow a node to
// communicate with its neighbours.
type Transport interface {
	Sender

	// Starts the transport listening
	Listen()

	// Consumer returns a channel delivering the packets received from
	// neighbours.
	Consumer() <-chan *Packet

	// LocalAddr is used to return our local address
	LocalAddr() string

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
