package common

import (
	"testing"
	"time"
)

func TestRandSeed(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if RandSeed("node0", start) != RandSeed("node0", start) {
		t.Fatal("RandSeed is not deterministic")
	}
	if RandSeed("node0", start) == RandSeed("node1", start) {
		t.Fatal("Nodes started together share a seed")
	}
	if RandSeed("node0", start) == RandSeed("node0", start.Add(time.Nanosecond)) {
		t.Fatal("Start time is ignored")
	}
}
