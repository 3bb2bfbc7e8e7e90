package common

import (
	"sort"
)

// Median returns the median of a set of integers or durations. The median of
// an even count is the mean of the two middle values, rounded toward zero.
// The median of nothing is 0.
func Median[T ~int64](input []T) T {
	s := make([]T, len(input))
	copy(s, input)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

	l := len(s)
	switch {
	case l == 0:
		return 0
	case l%2 == 0:
		return (s[l/2-1] + s[l/2]) / 2
	default:
		return s[l/2]
	}
}
