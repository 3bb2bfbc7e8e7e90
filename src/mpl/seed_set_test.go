package mpl

import (
	"reflect"
	"testing"

	"github.com/mosaicnetworks/mpl/src/common"
)

func expectContractPanic(t *testing.T, kind common.ContractErrType, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !common.IsContract(err, kind) {
			t.Fatalf("expected contract panic %d, got %v", kind, r)
		}
	}()
	f()
}

func TestSeedSetAddGet(t *testing.T) {
	s := NewSeedSet()
	s.Add(42, 1)

	entry := s.Get(42)
	if entry.SeedID != 42 || entry.MinSequence != 1 || entry.Lifetime != 0 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !s.Has(42) || s.Has(7) {
		t.Fatalf("Has is wrong")
	}
	if s.Len() != 1 {
		t.Fatalf("Len should be 1, not %d", s.Len())
	}
}

func TestSeedSetContractViolations(t *testing.T) {
	s := NewSeedSet()
	s.Add(42, 1)

	expectContractPanic(t, common.SeedExists, func() { s.Add(42, 3) })
	expectContractPanic(t, common.UnknownSeed, func() { s.Get(7) })
	expectContractPanic(t, common.UnknownSeed, func() { s.Remove(7) })
}

func TestSeedSetLifetimes(t *testing.T) {
	s := NewSeedSet()
	s.Add(3, 1)
	s.Add(1, 1)
	s.Add(2, 1)

	s.IncrementLifetimes()
	s.Get(2).ResetLifetime()
	s.IncrementLifetimes()

	if expired := s.Expire(3); len(expired) != 0 {
		t.Fatalf("nothing should expire yet, got %v", expired)
	}

	expired := s.Expire(2)
	if !reflect.DeepEqual(expired, []SeedID{1, 3}) {
		t.Fatalf("expired should be [1 3], not %v", expired)
	}
	if !reflect.DeepEqual(s.IDs(), []SeedID{2}) {
		t.Fatalf("remaining seeds should be [2], not %v", s.IDs())
	}
}

func TestAdvanceMinSequence(t *testing.T) {
	s := NewSeedSet()
	entry := s.Add(5, 10)

	if entry.AdvanceMinSequence(8) {
		t.Fatalf("MinSequence must not decrease")
	}
	if !entry.AdvanceMinSequence(12) {
		t.Fatalf("MinSequence should advance to 12")
	}
	if entry.AdvanceMinSequence(12) {
		t.Fatalf("advancing to the same value is not a move")
	}
	if entry.MinSequence != 12 {
		t.Fatalf("MinSequence should be 12, not %d", entry.MinSequence)
	}
}
