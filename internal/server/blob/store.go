// Package blob stores asset bytes outside the relational index, behind a
// small interface with a local-disk and an S3-compatible implementation.
package blob

import (
	"context"
	"io"
)

// Store persists asset payloads keyed by server-generated names of the form
// "{id}{ext}". Keys are never derived from client-supplied paths.
type Store interface {
	// Save writes the payload under key. Save must complete before the
	// metadata row is inserted.
	Save(ctx context.Context, key string, data []byte) error

	// Open returns a reader over the payload and its size. A missing blob
	// is reported with an error matching fs.ErrNotExist semantics via
	// errors.Is.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Delete removes the payload. Deleting a missing blob is not an error;
	// delete order is blob first, row second.
	Delete(ctx context.Context, key string) error

	// Path reports the storage location recorded in the asset row: an
	// absolute file path for the local backend, the object key for S3.
	Path(key string) string
}
