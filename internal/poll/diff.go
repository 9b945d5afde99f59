package poll

import "strings"

// Diff returns the part of next that has not been observed yet. prev is the
// previously observed trace, valid only when seen is true.
//
// Traces are append-only, so next normally starts with prev and only the
// suffix is new. If it does not, the whole of next is returned and anomaly
// is set.
func Diff(prev string, seen bool, next string) (chunk string, anomaly bool) {
	if !seen {
		return next, false
	}
	if strings.HasPrefix(next, prev) {
		return next[len(prev):], false
	}
	return next, true
}
