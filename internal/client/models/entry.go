// Package models defines the client-side view of synced data.
package models

import "time"

// Entry is one journal entry in the local cache. Payload is encrypted
// before it ever reaches the cache; the client treats it as opaque bytes
// the same way the server does.
type Entry struct {
	ID           string
	Payload      []byte
	PayloadNonce []byte
	Deleted      bool

	// Version is the last server-assigned version, 0 for entries that
	// have never been acked.
	Version int64
	// Pending marks a local edit that has not been acked by the server.
	Pending bool

	UpdatedAt time.Time
}
