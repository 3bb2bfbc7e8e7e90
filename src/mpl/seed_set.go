package mpl

import (
	"sort"
	"strconv"

	"github.com/mosaicnetworks/mpl/src/common"
)

// SeedID identifies the origin of data messages.
type SeedID uint32

// String ...
func (id SeedID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// SeedSetEntry is the state kept for one seed.
type SeedSetEntry struct {
	SeedID SeedID

	// MinSequence is the lower bound of the acceptance window.
	MinSequence int

	// Lifetime counts lifecycle ticks since fresh data from this seed was
	// last accepted.
	Lifetime int
}

// ResetLifetime marks the seed as fresh.
func (e *SeedSetEntry) ResetLifetime() {
	e.Lifetime = 0
}

// AdvanceMinSequence raises MinSequence to seq. It never lowers it and
// reports whether the window moved.
func (e *SeedSetEntry) AdvanceMinSequence(seq int) bool {
	if seq <= e.MinSequence {
		return false
	}
	e.MinSequence = seq
	return true
}

// SeedSet maps seed identities to their entries.
type SeedSet struct {
	entries map[SeedID]*SeedSetEntry
}

// NewSeedSet ...
func NewSeedSet() *SeedSet {
	return &SeedSet{
		entries: make(map[SeedID]*SeedSetEntry),
	}
}

// Add creates an entry with a zero lifetime. Adding a seed twice is a contract
// violation.
func (s *SeedSet) Add(id SeedID, minSequence int) *SeedSetEntry {
	if _, ok := s.entries[id]; ok {
		panic(common.NewContractErr("SeedSet", common.SeedExists, id.String()))
	}
	entry := &SeedSetEntry{
		SeedID:      id,
		MinSequence: minSequence,
	}
	s.entries[id] = entry
	return entry
}

// Get returns the entry of a known seed. Asking for an unknown seed is a
// contract violation.
func (s *SeedSet) Get(id SeedID) *SeedSetEntry {
	entry, ok := s.entries[id]
	if !ok {
		panic(common.NewContractErr("SeedSet", common.UnknownSeed, id.String()))
	}
	return entry
}

// Has ...
func (s *SeedSet) Has(id SeedID) bool {
	_, ok := s.entries[id]
	return ok
}

// Remove deletes a known seed. Removing an unknown seed is a contract
// violation.
func (s *SeedSet) Remove(id SeedID) {
	if _, ok := s.entries[id]; !ok {
		panic(common.NewContractErr("SeedSet", common.UnknownSeed, id.String()))
	}
	delete(s.entries, id)
}

// IncrementLifetimes ages every entry by one tick.
func (s *SeedSet) IncrementLifetimes() {
	for _, entry := range s.entries {
		entry.Lifetime++
	}
}

// Expire removes every entry whose lifetime reached ttl and returns the
// removed identities in ascending order.
func (s *SeedSet) Expire(ttl int) []SeedID {
	expired := []SeedID{}
	for id, entry := range s.entries {
		if entry.Lifetime >= ttl {
			expired = append(expired, id)
		}
	}
	sortSeedIDs(expired)
	for _, id := range expired {
		s.Remove(id)
	}
	return expired
}

// IDs returns the known seeds in ascending order.
func (s *SeedSet) IDs() []SeedID {
	ids := make([]SeedID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sortSeedIDs(ids)
	return ids
}

// Len ...
func (s *SeedSet) Len() int {
	return len(s.entries)
}

func sortSeedIDs(ids []SeedID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
