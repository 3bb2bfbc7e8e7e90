// Package store records the data messages delivered to the application of
// each node.
//
// InmemStore keeps the most recent deliveries in an LRU cache. BadgerStore
// writes every delivery to a Badger database and keeps an InmemStore in front
// of it.
package store
