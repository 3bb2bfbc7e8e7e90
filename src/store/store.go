package store

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

// Delivery is the record of a data message handed to the application of a
// node.
type Delivery struct {
	Node     string     `codec:"node"`
	SeedID   mpl.SeedID `codec:"seed"`
	Sequence int        `codec:"seq"`
	Size     int        `codec:"size"`
	At       time.Time  `codec:"at"`
}

// NewDelivery ...
func NewDelivery(node string, msg *mpl.DataMessage, at time.Time) *Delivery {
	return &Delivery{
		Node:     node,
		SeedID:   msg.SeedID,
		Sequence: msg.Sequence,
		Size:     len(msg.Payload),
		At:       at,
	}
}

// Key identifies the delivery within a store.
func (d *Delivery) Key() string {
	return deliveryKey(d.Node, d.SeedID, d.Sequence)
}

// Marshal ...
func (d *Delivery) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (d *Delivery) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(d)
}

// Store provides an interface for delivery records.
type Store interface {
	// SetDelivery records a delivery. Recording the same (node, seed,
	// sequence) twice returns a KeyAlreadyExists StoreErr.
	SetDelivery(d *Delivery) error

	// GetDelivery returns a KeyNotFound StoreErr when nothing was recorded.
	GetDelivery(node string, seed mpl.SeedID, seq int) (*Delivery, error)

	// Deliveries returns the deliveries of a node ordered by seed and
	// sequence number.
	Deliveries(node string) ([]*Delivery, error)

	Close() error
}

func deliveryKey(node string, seed mpl.SeedID, seq int) string {
	return fmt.Sprintf("%s_%d_%d", node, seed, seq)
}

func sortDeliveries(ds []*Delivery) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].SeedID != ds[j].SeedID {
			return ds[i].SeedID < ds[j].SeedID
		}
		return ds[i].Sequence < ds[j].Sequence
	})
}
