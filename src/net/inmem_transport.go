package net

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// ErrTransportShutdown is returned when operations on a transport are invoked
// after it's been terminated.
var ErrTransportShutdown = errors.New("transport shutdown")

// NewInmemAddr returns a new in-memory addr with
// a randomly generate UUID as the ID.
func NewInmemAddr() string {
	return generateUUID()
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}

// InmemTransport Implements the Transport interface, to allow MPL nodes to run
// in-memory without going over a network. Neighbourhood is explicit: a packet
// multicast by a transport reaches exactly the transports connected to it.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan *Packet
	localAddr  string
	peers      map[string]*InmemTransport
	shutdown   bool
	dropped    uint64
}

// NewInmemTransport is used to initialize a new transport and generates a
// random local address if none is specified. queueSize is the capacity of the
// inbound queue.
func NewInmemTransport(addr string, queueSize int) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		consumerCh: make(chan *Packet, queueSize),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
	}
	return addr, trans
}

// Consumer implements the Transport interface.
func (i *InmemTransport) Consumer() <-chan *Packet {
	return i.consumerCh
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// Multicast implements the Transport interface. The packet is encoded once and
// every neighbour receives its own decoded copy. Neighbours whose queue is full
// miss the packet.
func (i *InmemTransport) Multicast(p *Packet) error {
	i.RLock()
	if i.shutdown {
		i.RUnlock()
		return ErrTransportShutdown
	}
	peers := make([]*InmemTransport, 0, len(i.peers))
	for _, peer := range i.peers {
		peers = append(peers, peer)
	}
	i.RUnlock()

	sort.Slice(peers, func(a, b int) bool {
		return peers[a].localAddr < peers[b].localAddr
	})

	data, err := Encode(p)
	if err != nil {
		return err
	}

	for _, peer := range peers {
		c, err := Decode(data)
		if err != nil {
			return err
		}
		peer.receive(c)
	}

	return nil
}

func (i *InmemTransport) receive(p *Packet) {
	i.RLock()
	defer i.RUnlock()

	if i.shutdown {
		return
	}

	select {
	case i.consumerCh <- p:
	default:
		atomic.AddUint64(&i.dropped, 1)
	}
}

// Dropped returns the number of inbound packets lost to a full queue.
func (i *InmemTransport) Dropped() uint64 {
	return atomic.LoadUint64(&i.dropped)
}

// Connect is used to connect this transport to another transport for
// a given peer name. This allows for local routing. Links are one-way.
func (i *InmemTransport) Connect(peer string, t Transport) {
	trans := t.(*InmemTransport)
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = trans
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
	i.shutdown = true
	return nil
}

// Listen is an empty function as there is no need to defer
// initialisation of the InMem service
func (i *InmemTransport) Listen() {
}

// ConnectAll links every pair of transports in both directions.
func ConnectAll(transports ...*InmemTransport) {
	for _, a := range transports {
		for _, b := range transports {
			if a != b {
				a.Connect(b.LocalAddr(), b)
			}
		}
	}
}
