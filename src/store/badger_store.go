package store

import (
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"

	cm "github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/mpl"
)

const (
	deliveryPrefix = "delivery"
)

// BadgerStore contains references to the Badger database and an inmem store
// acting as a cache.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {

	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		sub := logger.WithFields(logrus.Fields{"ns": "badger"})
		opts = opts.WithLogger(sub)
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(cacheSize),
		db:         handle,
		path:       path,
	}
	return store, nil
}

/*******************************************************************************
Keys
*******************************************************************************/

func deliveryDBKey(node string, seed mpl.SeedID, seq int) []byte {
	return []byte(fmt.Sprintf("%s_%s", deliveryPrefix, deliveryKey(node, seed, seq)))
}

func nodePrefix(node string) []byte {
	return []byte(fmt.Sprintf("%s_%s_", deliveryPrefix, node))
}

/*******************************************************************************
Store interface
*******************************************************************************/

// SetDelivery implements the Store interface. Existing records are detected in
// the cache first, then in the database.
func (s *BadgerStore) SetDelivery(d *Delivery) error {
	if _, err := s.GetDelivery(d.Node, d.SeedID, d.Sequence); err == nil {
		return cm.NewStoreErr("Delivery", cm.KeyAlreadyExists, d.Key())
	} else if !cm.IsStore(err, cm.KeyNotFound) {
		return err
	}

	if err := s.dbSetDelivery(d); err != nil {
		return err
	}

	return s.inmemStore.SetDelivery(d)
}

// GetDelivery implements the Store interface.
func (s *BadgerStore) GetDelivery(node string, seed mpl.SeedID, seq int) (*Delivery, error) {
	d, err := s.inmemStore.GetDelivery(node, seed, seq)
	if err == nil {
		return d, nil
	}
	return s.dbGetDelivery(node, seed, seq)
}

// Deliveries implements the Store interface. The database is authoritative.
func (s *BadgerStore) Deliveries(node string) ([]*Delivery, error) {
	return s.dbGetDeliveries(node)
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if err := s.inmemStore.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// StorePath returns the full path of the underlying Badger database directory.
func (s *BadgerStore) StorePath() string {
	return s.path
}

/*******************************************************************************
DB Methods
*******************************************************************************/

func (s *BadgerStore) dbGetDelivery(node string, seed mpl.SeedID, seq int) (*Delivery, error) {
	var deliveryBytes []byte
	key := deliveryDBKey(node, seed, seq)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		deliveryBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, cm.NewStoreErr("Delivery", cm.KeyNotFound, string(key))
		}
		return nil, err
	}

	d := new(Delivery)
	if err := d.Unmarshal(deliveryBytes); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *BadgerStore) dbSetDelivery(d *Delivery) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	key := deliveryDBKey(d.Node, d.SeedID, d.Sequence)
	val, err := d.Marshal()
	if err != nil {
		return err
	}

	//insert [delivery_node_seed_seq] => [delivery bytes]
	if err := tx.Set(key, val); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *BadgerStore) dbGetDeliveries(node string) ([]*Delivery, error) {
	res := []*Delivery{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := nodePrefix(node)

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			err := item.Value(func(data []byte) error {
				d := new(Delivery)
				if err := d.Unmarshal(data); err != nil {
					return err
				}
				// node names may share a prefix
				if d.Node == node {
					res = append(res, d)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sortDeliveries(res)
	return res, nil
}
