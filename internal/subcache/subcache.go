// Package subcache implements the process-wide subscription cache from
// spec §4.5: a singleton that survives router restarts within the same
// process. Replacement is atomic relative to restart — a reader observes
// either the pre-restart or the post-restart set, never a partial one —
// by swapping a single pointer rather than mutating a shared map in place.
package subcache

import (
	"sync/atomic"

	"github.com/brindlebrook/mavrelay/internal/subscription"
)

// Entry is what the cache persists about one subscription: enough to
// restore it verbatim, minus the live delivery channel (which dies with
// the process that owned it and must be re-established by the new
// consumer, not resurrected from the cache).
type Entry struct {
	Query  subscription.Query
	Handle subscription.ConsumerHandle
}

var current atomic.Pointer[[]Entry]

func init() {
	empty := make([]Entry, 0)
	current.Store(&empty)
}

// Snapshot returns the current cached subscription set. The returned slice
// must not be mutated by the caller.
func Snapshot() []Entry {
	p := current.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Replace atomically swaps in a new subscription set, e.g. after a
// subscribe/unsubscribe/consumer-death event. The caller passes the full
// set, not a delta.
func Replace(entries []Entry) {
	snapshot := append([]Entry(nil), entries...)
	current.Store(&snapshot)
}

// Reset clears the cache. Used by tests; a running process has no
// legitimate reason to call this itself (spec §4.5: the cache outlives
// router restarts on purpose).
func Reset() {
	empty := make([]Entry, 0)
	current.Store(&empty)
}
