package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/seehuhn/mt19937"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/net"
	"github.com/mosaicnetworks/mpl/src/sched"
	"github.com/mosaicnetworks/mpl/src/store"
)

// Config describes a simulation run.
type Config struct {
	// MPL is the protocol configuration shared by every node. IsSeed and
	// SeedID are overridden from Seeds.
	MPL mpl.Config

	// Seeds maps node indices to the seed identity they originate data
	// with.
	Seeds map[int]mpl.SeedID

	// RandomSeed initialises every random stream of the run.
	RandomSeed int64

	// LifecycleInterval is the period of the seed lifetime tick.
	LifecycleInterval time.Duration

	// JoinJitter spreads the join time of the nodes uniformly over
	// [0, JoinJitter].
	JoinJitter time.Duration
}

// DefaultConfig returns a run configuration with node 0 acting as seed 1.
func DefaultConfig() *Config {
	return &Config{
		MPL:               *mpl.DefaultConfig(),
		Seeds:             map[int]mpl.SeedID{0: 1},
		RandomSeed:        1,
		LifecycleInterval: time.Second,
	}
}

// Start is the simulated time origin.
var Start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type published struct {
	seed mpl.SeedID
	seq  int
	at   time.Time
}

// Network is a simulated mesh of MPL nodes.
type Network struct {
	conf     *Config
	topology *Topology
	queue    *sched.EventQueue
	store    store.Store
	linkRand *rand.Rand
	nodes    []*simNode
	started  bool

	published   []published
	packetsSent int
	packetsLost int

	logger *logrus.Entry
}

type simNode struct {
	index   int
	name    string
	network *Network
	conf    mpl.Config
	engine  *mpl.Engine
	mux     *net.Mux
	logger  *logrus.Entry
}

// NewNetwork builds one engine per node of the topology. Deliveries are
// recorded in s.
func NewNetwork(conf *Config, topology *Topology, s store.Store, logger *logrus.Entry) (*Network, error) {
	if err := conf.MPL.Validate(); err != nil {
		return nil, err
	}
	if conf.LifecycleInterval <= 0 {
		return nil, fmt.Errorf("lifecycle interval must be positive, got %v", conf.LifecycleInterval)
	}
	for i := range conf.Seeds {
		if i < 0 || i >= topology.Size() {
			return nil, fmt.Errorf("seed node %d out of range [0, %d)", i, topology.Size())
		}
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	n := &Network{
		conf:     conf,
		topology: topology,
		queue:    sched.NewEventQueue(Start),
		store:    s,
		linkRand: newRand(conf.RandomSeed, -1),
		logger:   logger,
	}

	for i := 0; i < topology.Size(); i++ {
		n.nodes = append(n.nodes, n.newNode(i))
	}

	return n, nil
}

func newRand(seed int64, stream int) *rand.Rand {
	rng := rand.New(mt19937.New())
	rng.Seed(seed*7919 + int64(stream))
	return rng
}

func (n *Network) newNode(i int) *simNode {
	node := &simNode{
		index:   i,
		name:    fmt.Sprintf("node%d", i),
		network: n,
		conf:    n.conf.MPL,
	}
	node.logger = n.logger.WithField("node", node.name)

	if id, ok := n.conf.Seeds[i]; ok {
		node.conf.IsSeed = true
		node.conf.SeedID = id
	} else {
		node.conf.IsSeed = false
	}

	outbox := net.NewOutbox(node.name, node, node.logger)
	node.engine = mpl.NewEngine(&node.conf,
		n.queue,
		newRand(n.conf.RandomSeed, i),
		outbox,
		node.deliver,
		node.logger)

	node.mux = net.NewMux(node.logger)
	net.RegisterEngine(node.mux, node.engine)

	return node
}

// Multicast implements net.Sender. Each neighbour receives its own copy after
// the link delay unless the link loses it.
func (s *simNode) Multicast(p *net.Packet) error {
	data, err := net.Encode(p)
	if err != nil {
		return err
	}

	n := s.network
	for _, link := range n.topology.Neighbours(s.index) {
		n.packetsSent++
		if link.Loss > 0 && n.linkRand.Float64() < link.Loss {
			n.packetsLost++
			continue
		}

		c, err := net.Decode(data)
		if err != nil {
			return err
		}
		to := n.nodes[link.To]
		n.queue.AfterFunc(link.Delay, func() { to.receive(c) })
	}

	return nil
}

func (s *simNode) receive(p *net.Packet) {
	if err := s.mux.Dispatch(p); err != nil {
		s.logger.WithError(err).Error("Dispatch")
	}
}

func (s *simNode) deliver(msg *mpl.DataMessage) error {
	if s.network.store == nil {
		return nil
	}
	return s.network.store.SetDelivery(store.NewDelivery(s.name, msg, s.network.queue.Now()))
}

// Start joins every node, spread over JoinJitter, and starts the lifecycle
// ticks. It has no effect on a started network.
func (n *Network) Start() {
	if n.started {
		return
	}
	n.started = true

	for _, node := range n.nodes {
		var delay time.Duration
		if n.conf.JoinJitter > 0 {
			delay = time.Duration(n.linkRand.Int63n(int64(n.conf.JoinJitter) + 1))
		}
		engine := node.engine
		n.queue.AfterFunc(delay, engine.Join)
	}

	n.queue.AfterFunc(n.conf.LifecycleInterval, n.tick)
}

func (n *Network) tick() {
	for _, node := range n.nodes {
		node.engine.OnLifecycleTick()
	}
	n.queue.AfterFunc(n.conf.LifecycleInterval, n.tick)
}

// Publish originates a data message on a seed node now.
func (n *Network) Publish(node int, payload []byte) (*mpl.DataMessage, error) {
	if node < 0 || node >= len(n.nodes) {
		return nil, fmt.Errorf("node %d out of range [0, %d)", node, len(n.nodes))
	}
	s := n.nodes[node]
	if !s.conf.IsSeed {
		return nil, fmt.Errorf("%s is not a seed", s.name)
	}

	msg, accepted := s.engine.GenerateSeed(payload)
	if !accepted {
		return nil, fmt.Errorf("%s rejected its own message %d", s.name, msg.Sequence)
	}

	n.published = append(n.published, published{
		seed: msg.SeedID,
		seq:  msg.Sequence,
		at:   n.queue.Now(),
	})

	return msg, nil
}

// SchedulePublish publishes count messages of size bytes from a seed node,
// the first after delay and then every interval.
func (n *Network) SchedulePublish(node int, delay, interval time.Duration, count, size int) {
	var publish func(remaining int)
	publish = func(remaining int) {
		if _, err := n.Publish(node, make([]byte, size)); err != nil {
			n.logger.WithError(err).Error("Publish")
		}
		if remaining > 1 {
			n.queue.AfterFunc(interval, func() { publish(remaining - 1) })
		}
	}
	if count > 0 {
		n.queue.AfterFunc(delay, func() { publish(count) })
	}
}

// ScheduleTimeSourceChange makes a node change its time source after delay.
func (n *Network) ScheduleTimeSourceChange(node int, delay time.Duration) {
	engine := n.nodes[node].engine
	n.queue.AfterFunc(delay, engine.OnTimeSourceChange)
}

// Run advances the simulation by d and returns the number of events
// processed.
func (n *Network) Run(d time.Duration) int {
	return n.queue.Advance(d)
}

// Now returns the simulated time.
func (n *Network) Now() time.Time {
	return n.queue.Now()
}

// Size returns the number of nodes.
func (n *Network) Size() int {
	return len(n.nodes)
}

// Name returns the name of node i.
func (n *Network) Name(i int) string {
	return n.nodes[i].name
}

// Engine returns the engine of node i.
func (n *Network) Engine(i int) *mpl.Engine {
	return n.nodes[i].engine
}
