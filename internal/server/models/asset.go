package models

// Asset describes server-side metadata for one uploaded binary payload.
// The bytes themselves live in blob storage at StoragePath; the row is the
// relational index over them.
//
// The five encryption columns are all-or-nothing: either the client supplied
// a complete envelope (IsEncrypted true) or none of them are set. The server
// stores and returns the values verbatim and never attempts to decrypt.
type Asset struct {
	// ID is the server-generated identifier, never client-supplied.
	ID string
	// UserID is the owner; every read and write is scoped by (ID, UserID).
	UserID string
	// EntryID links the asset to a journal entry, "unknown" if the client
	// did not specify one.
	EntryID string

	Filename string
	MimeType string
	// Size is the payload length in bytes, matching the stored blob.
	Size int64
	// StoragePath is where the blob store put the bytes (an absolute path
	// for the local backend, an object key for S3).
	StoragePath string

	IsEncrypted    bool
	WrappedDEK     string
	DEKNonce       string
	DEKAuthTag     string
	ContentNonce   string
	ContentAuthTag string

	// CreatedAt is epoch milliseconds, set once at creation.
	CreatedAt int64
}
