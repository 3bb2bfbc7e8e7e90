package mpl

// DataMessage carries application bytes from a seed.
type DataMessage struct {
	SeedID   SeedID `codec:"seed"`
	Sequence int    `codec:"seq"`

	// More is set when Sequence is the highest the sender holds for the
	// seed.
	More bool `codec:"more"`

	Payload []byte `codec:"payload"`
}

// SeedSummary describes the window a node holds for one seed. Bitmap[i] is
// true when MinSequence+i is buffered.
type SeedSummary struct {
	MinSequence  int    `codec:"min"`
	BitmapLength int    `codec:"len"`
	Bitmap       []bool `codec:"bitmap"`
}

// Has reports whether the summary marks seq as held.
func (s SeedSummary) Has(seq int) bool {
	i := seq - s.MinSequence
	if i < 0 || i >= s.BitmapLength || i >= len(s.Bitmap) {
		return false
	}
	return s.Bitmap[i]
}

// Max returns the highest sequence number marked in the summary.
func (s SeedSummary) Max() (int, bool) {
	n := s.BitmapLength
	if n > len(s.Bitmap) {
		n = len(s.Bitmap)
	}
	for i := n - 1; i >= 0; i-- {
		if s.Bitmap[i] {
			return s.MinSequence + i, true
		}
	}
	return 0, false
}

// ControlMessage summarises the BufferedSet of its sender, one entry per
// known seed.
type ControlMessage struct {
	Summaries map[SeedID]SeedSummary `codec:"summaries"`
}
