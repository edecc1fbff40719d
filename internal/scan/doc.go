// Package scan dispatches group scan jobs as bounded-concurrency waves.
//
// A wave runs one job per group on a pool of at most Limit goroutines and
// returns only after every job has finished. Job failures, including panics,
// are captured as Results and logged with the group and mode; they never
// cancel sibling jobs. The retry wave reuses the same pool to rescan groups
// with outstanding misses.
//
// The actual NNTP work is performed by a GroupScanner; this package only owns
// the scheduling policy.
package scan
