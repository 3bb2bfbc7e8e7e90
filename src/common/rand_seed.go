package common

import (
	"hash/fnv"
	"time"
)

// RandSeed derives the seed of a node's random stream from its name and a
// start time, so that nodes started together draw different sequences.
func RandSeed(name string, start time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return start.UnixNano() ^ int64(h.Sum64())
}
