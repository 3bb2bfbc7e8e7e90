package sim

import (
	"time"

	cm "github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/mpl"
)

// NodeReport summarises one node.
type NodeReport struct {
	Name      string    `json:"name"`
	Stats     mpl.Stats `json:"stats"`
	Delivered int       `json:"delivered"`

	// MaxLatency and MedianLatency measure the time between publication and
	// delivery.
	MaxLatency    time.Duration `json:"max_latency"`
	MedianLatency time.Duration `json:"median_latency"`
}

// Report summarises a run.
type Report struct {
	Elapsed     time.Duration `json:"elapsed"`
	Published   int           `json:"published"`
	PacketsSent int           `json:"packets_sent"`
	PacketsLost int           `json:"packets_lost"`

	// DeliveryRatio is the fraction of (node, published message) pairs that
	// were delivered.
	DeliveryRatio float64 `json:"delivery_ratio"`

	Nodes []NodeReport `json:"nodes"`
}

// Complete reports whether every node delivered every published message.
func (r *Report) Complete() bool {
	return r.Published > 0 && r.DeliveryRatio == 1
}

// Report collects the statistics of every node and checks deliveries against
// the store.
func (n *Network) Report() (*Report, error) {
	r := &Report{
		Elapsed:     n.queue.Now().Sub(Start),
		Published:   len(n.published),
		PacketsSent: n.packetsSent,
		PacketsLost: n.packetsLost,
	}

	total := 0
	for _, node := range n.nodes {
		nr := NodeReport{
			Name:  node.name,
			Stats: node.engine.GetStats(),
		}

		if n.store != nil {
			latencies := []time.Duration{}
			for _, p := range n.published {
				d, err := n.store.GetDelivery(node.name, p.seed, p.seq)
				if cm.IsStore(err, cm.KeyNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				nr.Delivered++
				l := d.At.Sub(p.at)
				if l > nr.MaxLatency {
					nr.MaxLatency = l
				}
				latencies = append(latencies, l)
			}
			nr.MedianLatency = cm.Median(latencies)
		}

		total += nr.Delivered
		r.Nodes = append(r.Nodes, nr)
	}

	if expected := len(n.published) * len(n.nodes); expected > 0 {
		r.DeliveryRatio = float64(total) / float64(expected)
	}

	return r, nil
}
