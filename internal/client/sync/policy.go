// Package sync implements the client half of entry sync: an idle-aware merge
// policy and a per-entry engine that connects, pulls, pushes and applies
// remote updates without ever interrupting active typing.
package sync

import "time"

const (
	// DefaultIdleThreshold is how long the user must be idle before a
	// remote update may replace their local copy.
	DefaultIdleThreshold = 2 * time.Second

	// DefaultPushDebounce is how long after the last keystroke a local
	// edit waits before being pushed.
	DefaultPushDebounce = time.Second
)

// ShouldApply decides whether a remote update may be applied over the local
// copy. It is allowed when the entry has never been edited locally, or when
// the last edit is at least threshold old. An update that arrives mid-typing
// is dropped; the local copy wins and will be pushed on the next debounce.
func ShouldApply(now time.Time, lastLocalEdit *time.Time, threshold time.Duration) bool {
	if lastLocalEdit == nil {
		return true
	}
	return now.Sub(*lastLocalEdit) >= threshold
}
