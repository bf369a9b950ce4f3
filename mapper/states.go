package mapper

import "github.com/sourcemeta/jsonbinpack-sub005/numeric"

// EnumerateStates lists the multiples of multiplier within
// [minimum, maximum] in ascending order. It stops once limit values have been
// collected and reports whether the list is complete.
func EnumerateStates(minimum, maximum int64, multiplier uint64, limit int) ([]int64, bool) {
	if multiplier == 0 || minimum > maximum {
		return nil, true
	}
	first := numeric.DivideCeil(minimum, multiplier)
	last := numeric.DivideFloor(maximum, multiplier)
	var out []int64
	for i := first; i <= last; i++ {
		if len(out) == limit {
			return out, false
		}
		// Wraps correctly for a multiplier of 2^63, whose only negative
		// multiple is math.MinInt64.
		out = append(out, i*int64(multiplier))
		if i == last {
			break
		}
	}
	return out, true
}
