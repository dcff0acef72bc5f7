package pdfrender

import "runtime"

// Tab limit constants.
const (
	// MinTabLimit ensures at least one tab per batch.
	MinTabLimit = 1

	// MaxTabLimit caps concurrent tabs per batch (~100MB renderer each).
	MaxTabLimit = 8

	// cpuDivisor leaves headroom for Chrome's own processes.
	cpuDivisor = 2
)

// ResolveTabLimit returns how many tabs one batch may hold open at once.
// An explicit positive n wins; otherwise the value is derived from
// GOMAXPROCS (set by automaxprocs in containers) within
// [MinTabLimit, MaxTabLimit].
func ResolveTabLimit(n int) int {
	if n > 0 {
		return n
	}

	available := runtime.GOMAXPROCS(0)
	return min(max(available/cpuDivisor, MinTabLimit), MaxTabLimit)
}
