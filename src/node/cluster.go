package node

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/mosaicnetworks/mpl/src/config"
	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/net"
	"github.com/mosaicnetworks/mpl/src/sim"
	"github.com/mosaicnetworks/mpl/src/store"
)

// Cluster is a set of in-memory nodes whose transports are connected along the
// links of a topology. Link delays and losses are not simulated; the only
// losses are packets arriving on a full queue.
type Cluster struct {
	nodes []*Node
	store store.Store
}

// NewCluster creates one node per topology node. Every node starts from a
// copy of base; the nodes listed in seeds are configured as seeds.
func NewCluster(base *config.Config,
	topology *sim.Topology,
	seeds map[int]mpl.SeedID,
	s store.Store,
	clock clockwork.Clock) (*Cluster, error) {

	if err := base.Validate(); err != nil {
		return nil, err
	}
	for i := range seeds {
		if i < 0 || i >= topology.Size() {
			return nil, fmt.Errorf("seed node %d out of range [0, %d)", i, topology.Size())
		}
	}

	// share one logger between the copies
	base.Logger()

	transports := make([]*net.InmemTransport, topology.Size())
	for i := range transports {
		_, transports[i] = net.NewInmemTransport(fmt.Sprintf("node%d", i), base.QueueSize)
	}
	for i, trans := range transports {
		for _, link := range topology.Neighbours(i) {
			peer := transports[link.To]
			trans.Connect(peer.LocalAddr(), peer)
		}
	}

	c := &Cluster{store: s}
	for i, trans := range transports {
		conf := *base
		id, ok := seeds[i]
		conf.MPL.IsSeed = ok
		conf.MPL.SeedID = id
		c.nodes = append(c.nodes, NewNode(&conf, trans.LocalAddr(), trans, s, clock))
	}

	return c, nil
}

// Start initialises every node and runs its loop in the background.
func (c *Cluster) Start() error {
	for _, n := range c.nodes {
		if err := n.Init(); err != nil {
			return err
		}
		n.RunAsync()
	}
	return nil
}

// Nodes ...
func (c *Cluster) Nodes() []*Node {
	return c.nodes
}

// Node returns node i.
func (c *Cluster) Node(i int) *Node {
	return c.nodes[i]
}

// Seeds returns the nodes configured as seeds.
func (c *Cluster) Seeds() []*Node {
	res := []*Node{}
	for _, n := range c.nodes {
		if n.conf.MPL.IsSeed {
			res = append(res, n)
		}
	}
	return res
}

// Shutdown stops every node.
func (c *Cluster) Shutdown() {
	for _, n := range c.nodes {
		n.Shutdown()
	}
}
