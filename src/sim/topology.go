package sim

import (
	"fmt"
	"sort"
	"time"
)

// Link is a one-way radio link.
type Link struct {
	From  int
	To    int
	Delay time.Duration

	// Loss is the probability in [0, 1] that a packet is lost.
	Loss float64
}

// Topology is the neighbourhood graph of a simulated network.
type Topology struct {
	size  int
	links map[int]map[int]Link
}

// NewTopology returns a topology of n disconnected nodes.
func NewTopology(n int) *Topology {
	return &Topology{
		size:  n,
		links: make(map[int]map[int]Link),
	}
}

// Size returns the number of nodes.
func (t *Topology) Size() int {
	return t.size
}

// AddLink connects a and b in both directions. Adding an existing link
// replaces it.
func (t *Topology) AddLink(a, b int, delay time.Duration, loss float64) error {
	if a == b {
		return fmt.Errorf("self link on node %d", a)
	}
	if a < 0 || a >= t.size || b < 0 || b >= t.size {
		return fmt.Errorf("link %d-%d out of range [0, %d)", a, b, t.size)
	}
	if loss < 0 || loss > 1 {
		return fmt.Errorf("loss %v out of range [0, 1]", loss)
	}
	t.set(Link{From: a, To: b, Delay: delay, Loss: loss})
	t.set(Link{From: b, To: a, Delay: delay, Loss: loss})
	return nil
}

func (t *Topology) set(l Link) {
	if t.links[l.From] == nil {
		t.links[l.From] = make(map[int]Link)
	}
	t.links[l.From][l.To] = l
}

// Neighbours returns the links leaving node i ordered by destination.
func (t *Topology) Neighbours(i int) []Link {
	res := make([]Link, 0, len(t.links[i]))
	for _, l := range t.links[i] {
		res = append(res, l)
	}
	sort.Slice(res, func(a, b int) bool { return res[a].To < res[b].To })
	return res
}

// Line chains n nodes.
func Line(n int, delay time.Duration, loss float64) (*Topology, error) {
	t := NewTopology(n)
	for i := 0; i+1 < n; i++ {
		if err := t.AddLink(i, i+1, delay, loss); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Grid lays out width*height nodes row by row, each linked to its horizontal
// and vertical neighbours.
func Grid(width, height int, delay time.Duration, loss float64) (*Topology, error) {
	t := NewTopology(width * height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if x+1 < width {
				if err := t.AddLink(i, i+1, delay, loss); err != nil {
					return nil, err
				}
			}
			if y+1 < height {
				if err := t.AddLink(i, i+width, delay, loss); err != nil {
					return nil, err
				}
			}
		}
	}
	return t, nil
}

// Full links every pair of n nodes.
func Full(n int, delay time.Duration, loss float64) (*Topology, error) {
	t := NewTopology(n)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			if err := t.AddLink(a, b, delay, loss); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
