package node

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/mpl/src/config"
	"github.com/mosaicnetworks/mpl/src/mpl"
	"github.com/mosaicnetworks/mpl/src/net"
	"github.com/mosaicnetworks/mpl/src/sim"
	"github.com/mosaicnetworks/mpl/src/store"
)

func testConfig(t *testing.T) *config.Config {
	conf := config.NewTestConfig(t, logrus.DebugLevel)
	conf.MPL.DataMessageIMin = 10 * time.Millisecond
	conf.MPL.DataMessageIMax = 20 * time.Millisecond
	conf.MPL.ControlMessageIMin = 50 * time.Millisecond
	conf.MPL.ControlMessageIMax = 100 * time.Millisecond
	return conf
}

func newTestCluster(t *testing.T, topo *sim.Topology, seeds map[int]mpl.SeedID) (*Cluster, clockwork.FakeClock, store.Store) {
	clock := clockwork.NewFakeClock()
	s := store.NewInmemStore(1000)

	cluster, err := NewCluster(testConfig(t), topo, seeds, s, clock)
	require.NoError(t, err)
	require.NoError(t, cluster.Start())

	return cluster, clock, s
}

func TestClusterFlood(t *testing.T) {
	topo, err := sim.Line(4, 0, 0)
	require.NoError(t, err)

	cluster, clock, s := newTestCluster(t, topo, map[int]mpl.SeedID{0: 7})
	defer cluster.Shutdown()

	for _, n := range cluster.Nodes() {
		require.Equal(t, Forwarding, n.GetState())
	}
	require.Len(t, cluster.Seeds(), 1)

	var sent []*mpl.DataMessage
	for i := 0; i < 3; i++ {
		msg, err := cluster.Node(0).Submit([]byte{byte(i)})
		require.NoError(t, err)
		require.Equal(t, mpl.SeedID(7), msg.SeedID)
		sent = append(sent, msg)
	}

	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		for _, n := range cluster.Nodes() {
			for _, msg := range sent {
				if _, err := s.GetDelivery(n.Name(), msg.SeedID, msg.Sequence); err != nil {
					return false
				}
			}
		}
		return true
	}, 10*time.Second, 5*time.Millisecond)

	for _, n := range cluster.Nodes() {
		stats := n.GetStats()
		require.Equal(t, 1, stats.Seeds, n.Name())
		require.Equal(t, 3, stats.Accepted, n.Name())
	}
}

func TestSubmitNotSeed(t *testing.T) {
	topo, err := sim.Line(2, 0, 0)
	require.NoError(t, err)

	cluster, _, _ := newTestCluster(t, topo, map[int]mpl.SeedID{0: 1})
	defer cluster.Shutdown()

	_, err = cluster.Node(1).Submit([]byte("x"))
	require.Error(t, err)
}

func TestShutdown(t *testing.T) {
	topo, err := sim.Line(2, 0, 0)
	require.NoError(t, err)

	cluster, clock, _ := newTestCluster(t, topo, map[int]mpl.SeedID{0: 1})

	n := cluster.Node(0)
	cluster.Shutdown()
	require.Equal(t, Shutdown, n.GetState())

	_, err = n.Submit([]byte("x"))
	require.ErrorIs(t, err, ErrShutdown)

	// pending timers fire into a stopped node
	clock.Advance(time.Second)

	// idempotent
	n.Shutdown()
}

func TestShutdownDropsTimerCallbacks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	_, trans := net.NewInmemTransport("node0", 16)

	n := NewNode(testConfig(t), "node0", trans, nil, clock)
	require.NoError(t, n.Init())

	// without a run loop, the fired control timer waits on the timer channel
	var f func()
	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		select {
		case f = <-n.timerCh:
			return true
		default:
			return false
		}
	}, 5*time.Second, time.Millisecond)

	n.coreLock.Lock()
	f()
	n.coreLock.Unlock()
	clock.Advance(time.Second)

	// Shutdown waits for the parked callback to give up
	n.Shutdown()
	require.Equal(t, Shutdown, n.GetState())

	n.dispatch(func() { t.Error("callback ran after shutdown") })
	select {
	case <-n.timerCh:
		t.Fatal("callback dispatched after shutdown")
	case <-time.After(50 * time.Millisecond):
	}
	n.waitRoutines()
}

func TestTimeSourceChange(t *testing.T) {
	topo, err := sim.Line(2, 0, 0)
	require.NoError(t, err)

	cluster, _, _ := newTestCluster(t, topo, nil)
	defer cluster.Shutdown()

	cluster.Node(1).OnTimeSourceChange()
	require.Equal(t, 1, cluster.Node(1).GetStats().ParentChangeCount)
}

func TestNewClusterErrors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	topo := sim.NewTopology(2)

	_, err := NewCluster(testConfig(t), topo, map[int]mpl.SeedID{3: 1}, nil, clock)
	require.Error(t, err)

	conf := testConfig(t)
	conf.CacheSize = 0
	_, err = NewCluster(conf, topo, nil, nil, clock)
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Joining", Joining.String())
	require.Equal(t, "Forwarding", Forwarding.String())
	require.Equal(t, "Shutdown", Shutdown.String())
	require.Equal(t, "Unknown", State(9).String())
}
