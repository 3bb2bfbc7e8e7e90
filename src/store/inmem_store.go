package store

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	cm "github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/mpl"
)

// InmemStore keeps up to cacheSize deliveries in memory, evicting the least
// recently used.
type InmemStore struct {
	sync.RWMutex
	cacheSize  int
	deliveries *lru.Cache[string, *Delivery]
	closed     bool
}

// NewInmemStore ...
func NewInmemStore(cacheSize int) *InmemStore {
	deliveries, err := lru.New[string, *Delivery](cacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &InmemStore{
		cacheSize:  cacheSize,
		deliveries: deliveries,
	}
}

// CacheSize ...
func (s *InmemStore) CacheSize() int {
	return s.cacheSize
}

// SetDelivery implements the Store interface.
func (s *InmemStore) SetDelivery(d *Delivery) error {
	s.Lock()
	defer s.Unlock()

	if s.closed {
		return cm.NewStoreErr("Delivery", cm.Closed, d.Key())
	}

	key := d.Key()
	if s.deliveries.Contains(key) {
		return cm.NewStoreErr("Delivery", cm.KeyAlreadyExists, key)
	}
	s.deliveries.Add(key, d)
	return nil
}

// GetDelivery implements the Store interface.
func (s *InmemStore) GetDelivery(node string, seed mpl.SeedID, seq int) (*Delivery, error) {
	s.RLock()
	defer s.RUnlock()

	key := deliveryKey(node, seed, seq)
	d, ok := s.deliveries.Get(key)
	if !ok {
		return nil, cm.NewStoreErr("Delivery", cm.KeyNotFound, key)
	}
	return d, nil
}

// Deliveries implements the Store interface. Only cached deliveries are
// returned.
func (s *InmemStore) Deliveries(node string) ([]*Delivery, error) {
	s.RLock()
	defer s.RUnlock()

	res := []*Delivery{}
	for _, d := range s.deliveries.Values() {
		if d.Node == node {
			res = append(res, d)
		}
	}
	sortDeliveries(res)
	return res, nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	s.Lock()
	defer s.Unlock()
	s.closed = true
	s.deliveries.Purge()
	return nil
}
