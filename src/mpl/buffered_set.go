package mpl

import (
	"strconv"

	"github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/sched"
)

// BufferedEntry is one slot of the BufferedSet.
type BufferedEntry struct {
	SeedID         SeedID
	SequenceNumber int

	// Payload references the application bytes. It is not copied.
	Payload []byte

	// Valid is false for free slots. A free slot may still hold a retired
	// message (see Retired).
	Valid bool

	// ExpirationCount is the number of times the data trickle timer fired
	// since the entry was written or last revived.
	ExpirationCount int

	// Timer is the pending data trickle timer, nil when idle.
	Timer sched.Timer

	// retired is set when the data timer exhausted its expirations. The
	// content is kept until the slot is reused or swept so the message can
	// be revived by reconciliation and is not accepted a second time.
	retired bool

	// timerID identifies the callback currently armed on the slot.
	timerID uint64
}

// Retired reports whether the slot holds a message whose data timer is
// exhausted.
func (e *BufferedEntry) Retired() bool {
	return e.retired
}

// Idle reports whether no data timer is pending on the slot.
func (e *BufferedEntry) Idle() bool {
	return e.Timer == nil
}

// holds reports whether the slot still carries a message, live or retired.
func (e *BufferedEntry) holds() bool {
	return e.Valid || e.retired
}

// BufferedSet is a slab of buffered messages. Slot indices are stable: the
// slab only grows and emptied slots are reused in place.
type BufferedSet struct {
	slots []*BufferedEntry
}

// NewBufferedSet ...
func NewBufferedSet() *BufferedSet {
	return &BufferedSet{}
}

// FindFreeSlot returns the index of the first released slot. Retired slots
// are not free: they keep suppressing their message until Sweep or PurgeSeed
// releases them.
func (b *BufferedSet) FindFreeSlot() (int, bool) {
	for i, e := range b.slots {
		if !e.holds() {
			return i, true
		}
	}
	return 0, false
}

// InsertOrOverwrite writes a new valid entry in the first free slot, or
// appends one, and returns its index. Overwriting drops the reference to any
// previous timer; callers stop it beforehand.
func (b *BufferedSet) InsertOrOverwrite(seed SeedID, seq int, payload []byte) int {
	entry := &BufferedEntry{
		SeedID:         seed,
		SequenceNumber: seq,
		Payload:        payload,
		Valid:          true,
	}
	if i, ok := b.FindFreeSlot(); ok {
		*b.slots[i] = *entry
		return i
	}
	b.slots = append(b.slots, entry)
	return len(b.slots) - 1
}

// HighestSequence returns the largest sequence number held in a valid entry
// of the seed, or 0 when there is none.
func (b *BufferedSet) HighestSequence(seed SeedID) int {
	highest := 0
	for _, e := range b.slots {
		if e.Valid && e.SeedID == seed && highest < e.SequenceNumber {
			highest = e.SequenceNumber
		}
	}
	return highest
}

// HighestHeld is like HighestSequence but also counts retired messages.
func (b *BufferedSet) HighestHeld(seed SeedID) int {
	highest := 0
	for _, e := range b.slots {
		if e.holds() && e.SeedID == seed && highest < e.SequenceNumber {
			highest = e.SequenceNumber
		}
	}
	return highest
}

// Sweep empties every slot whose sequence number fell below the MinSequence
// of its seed and returns the emptied indices. Pending timers are left
// untouched. Every seed held in the slab must be known to seeds.
func (b *BufferedSet) Sweep(seeds *SeedSet) []int {
	swept := []int{}
	for i, e := range b.slots {
		if !e.holds() {
			continue
		}
		if e.SequenceNumber < seeds.Get(e.SeedID).MinSequence {
			e.Valid = false
			e.retired = false
			swept = append(swept, i)
		}
	}
	return swept
}

// Exists reports whether a valid entry matches exactly.
func (b *BufferedSet) Exists(seed SeedID, seq int) bool {
	for _, e := range b.slots {
		if e.Valid && e.SeedID == seed && e.SequenceNumber == seq {
			return true
		}
	}
	return false
}

// Lookup returns the slot holding (seed, seq), valid or retired.
func (b *BufferedSet) Lookup(seed SeedID, seq int) (int, bool) {
	for i, e := range b.slots {
		if e.holds() && e.SeedID == seed && e.SequenceNumber == seq {
			return i, true
		}
	}
	return 0, false
}

// Retire marks the slot invalid while keeping its message.
func (b *BufferedSet) Retire(i int) {
	e := b.At(i)
	e.Valid = false
	e.retired = true
}

// Revive makes a retired or idle slot valid again with a fresh expiration
// count.
func (b *BufferedSet) Revive(i int) {
	e := b.At(i)
	e.Valid = true
	e.retired = false
	e.ExpirationCount = 0
}

// Release empties the slot.
func (b *BufferedSet) Release(i int) {
	e := b.At(i)
	e.Valid = false
	e.retired = false
}

// PurgeSeed releases every slot holding a message of the seed and returns
// their indices.
func (b *BufferedSet) PurgeSeed(seed SeedID) []int {
	purged := []int{}
	for i, e := range b.slots {
		if e.holds() && e.SeedID == seed {
			e.Valid = false
			e.retired = false
			purged = append(purged, i)
		}
	}
	return purged
}

// At returns the slot at index i. An out of range index is a contract
// violation.
func (b *BufferedSet) At(i int) *BufferedEntry {
	if i < 0 || i >= len(b.slots) {
		panic(common.NewContractErr("BufferedSet", common.UnknownSlot, strconv.Itoa(i)))
	}
	return b.slots[i]
}

// Len returns the number of slots, valid or not.
func (b *BufferedSet) Len() int {
	return len(b.slots)
}

// ValidCount returns the number of valid slots.
func (b *BufferedSet) ValidCount() int {
	n := 0
	for _, e := range b.slots {
		if e.Valid {
			n++
		}
	}
	return n
}
