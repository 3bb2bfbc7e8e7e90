package node

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/seehuhn/mt19937"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/config"
	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/net"
	"github.com/mosaicnetworks/mpl/src/sched"
	"github.com/mosaicnetworks/mpl/src/store"
)

// ErrShutdown is returned by Submit once the node is shut down.
var ErrShutdown = errors.New("node is shut down")

type submission struct {
	payload []byte
	respCh  chan submitResponse
}

type submitResponse struct {
	msg *mpl.DataMessage
	err error
}

//Node defines an MPL node
type Node struct {
	state

	conf   *config.Config
	name   string
	logger *logrus.Entry

	engine   *mpl.Engine
	coreLock sync.Mutex

	clock clockwork.Clock
	trans net.Transport
	netCh <-chan *net.Packet
	mux   *net.Mux
	store store.Store

	timerCh    chan func()
	submitCh   chan submission
	shutdownCh chan struct{}

	// dispatchLock orders dispatch against Shutdown so that no goroutine is
	// added to the wait group once Shutdown started waiting.
	dispatchLock sync.Mutex
}

//NewNode is a factory method that returns a Node instance. Deliveries are
//recorded in s, which may be nil.
func NewNode(conf *config.Config,
	name string,
	trans net.Transport,
	s store.Store,
	clock clockwork.Clock,
) *Node {

	node := &Node{
		conf:       conf,
		name:       name,
		logger:     conf.Logger().WithField("node", name),
		clock:      clock,
		trans:      trans,
		netCh:      trans.Consumer(),
		store:      s,
		timerCh:    make(chan func()),
		submitCh:   make(chan submission),
		shutdownCh: make(chan struct{}),
	}

	rng := rand.New(mt19937.New())
	rng.Seed(common.RandSeed(name, clock.Now()))

	node.engine = mpl.NewEngine(&conf.MPL,
		sched.NewClockScheduler(clock, node.dispatch),
		rng,
		net.NewOutbox(name, trans, node.logger),
		node.deliver,
		node.logger)

	node.mux = net.NewMux(node.logger)
	net.RegisterEngine(node.mux, node.engine)

	return node
}

// dispatch hands a fired timer callback to the run loop. It runs on the
// clock's goroutine and must not block it. Callbacks firing after Shutdown are
// dropped.
func (n *Node) dispatch(f func()) {
	n.dispatchLock.Lock()
	defer n.dispatchLock.Unlock()

	if n.getState() == Shutdown {
		return
	}

	n.goFunc(func() {
		select {
		case n.timerCh <- f:
		case <-n.shutdownCh:
		}
	})
}

func (n *Node) deliver(msg *mpl.DataMessage) error {
	n.logger.WithFields(logrus.Fields{
		"seed": msg.SeedID,
		"seq":  msg.Sequence,
		"size": len(msg.Payload),
	}).Debug("Deliver")

	if n.store == nil {
		return nil
	}
	return n.store.SetDelivery(store.NewDelivery(n.name, msg, n.clock.Now()))
}

//Init joins the engine to the network
func (n *Node) Init() error {
	if err := n.conf.Validate(); err != nil {
		return err
	}

	n.coreLock.Lock()
	n.engine.Join()
	n.coreLock.Unlock()

	n.setState(Forwarding)
	return nil
}

//RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	n.logger.Debug("runasync")
	n.goFunc(n.Run)
}

//Run invokes the main loop of the node. It returns when the node is shut down.
func (n *Node) Run() {
	ticker := n.clock.NewTicker(n.conf.LifecycleInterval)
	defer ticker.Stop()

	for {
		select {
		case p := <-n.netCh:
			n.processPacket(p)
		case f := <-n.timerCh:
			n.coreLock.Lock()
			f()
			n.coreLock.Unlock()
		case s := <-n.submitCh:
			msg, err := n.publish(s.payload)
			s.respCh <- submitResponse{msg: msg, err: err}
		case <-ticker.Chan():
			n.coreLock.Lock()
			n.engine.OnLifecycleTick()
			n.coreLock.Unlock()
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processPacket(p *net.Packet) {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	if err := n.mux.Dispatch(p); err != nil {
		n.logger.WithError(err).WithField("source", p.Source).Error("Processing packet")
	}
}

func (n *Node) publish(payload []byte) (*mpl.DataMessage, error) {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()

	msg, accepted := n.engine.GenerateSeed(payload)
	if !accepted {
		return nil, fmt.Errorf("message %d rejected", msg.Sequence)
	}
	return msg, nil
}

//Submit originates a data message. Only seed nodes can submit.
func (n *Node) Submit(payload []byte) (*mpl.DataMessage, error) {
	if !n.conf.MPL.IsSeed {
		return nil, fmt.Errorf("%s is not a seed", n.name)
	}

	s := submission{
		payload: payload,
		respCh:  make(chan submitResponse, 1),
	}

	select {
	case n.submitCh <- s:
	case <-n.shutdownCh:
		return nil, ErrShutdown
	}

	resp := <-s.respCh
	return resp.msg, resp.err
}

//OnTimeSourceChange records a change of time source on the engine.
func (n *Node) OnTimeSourceChange() {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()
	n.engine.OnTimeSourceChange()
}

//Shutdown shuts down the node
func (n *Node) Shutdown() {
	n.dispatchLock.Lock()
	if n.getState() == Shutdown {
		n.dispatchLock.Unlock()
		return
	}

	n.logger.Debug("Shutdown")

	//Exit any non-shutdown state immediately
	n.setState(Shutdown)

	//Stop and wait for concurrent operations, pending dispatches included
	close(n.shutdownCh)
	n.dispatchLock.Unlock()

	n.waitRoutines()

	//transport should only be closed once the run loop is finished
	n.trans.Close()
}

//GetState returns the state of the node
func (n *Node) GetState() State {
	return n.getState()
}

//Name returns the name of the node
func (n *Node) Name() string {
	return n.name
}

//GetStats returns the engine counters
func (n *Node) GetStats() mpl.Stats {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()
	return n.engine.GetStats()
}
