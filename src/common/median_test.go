package common

import (
	"testing"
	"time"
)

func TestMedian(t *testing.T) {
	for _, c := range []struct {
		in  []int64
		out int64
	}{
		{[]int64{5, 3, 4, 2, 1}, 3},
		{[]int64{6, 3, 2, 4, 5, 1}, 3},
		{[]int64{1}, 1},
		{[]int64{}, 0},
	} {
		got := Median(c.in)
		if got != c.out {
			t.Errorf("Median(%d) => %d != %d", c.in, got, c.out)
		}
	}
}

func TestMedianDurations(t *testing.T) {
	in := []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if got := Median(in); got != 25*time.Millisecond {
		t.Errorf("Median(%v) => %v", in, got)
	}
	// input is left untouched
	if in[0] != 30*time.Millisecond {
		t.Errorf("Median sorted its input: %v", in)
	}
}
