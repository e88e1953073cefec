// Package models defines server-side data models persisted in the database.
package models

import "time"

// Entry is one journal entry as the server sees it: an opaque encrypted
// payload plus sync metadata. The server never reads entry content, so
// conflict resolution is whole-entry, driven by the monotonic Version.
type Entry struct {
	ID     string
	UserID string

	// Payload and PayloadNonce carry the client-encrypted entry content.
	Payload      []byte
	PayloadNonce []byte

	Deleted bool
	// Version is the server-assigned, per-user monotonic version used for
	// delta sync.
	Version int64

	UpdatedAt time.Time
}
