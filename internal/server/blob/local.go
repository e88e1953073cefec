package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps blobs as one file per asset under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if absent and returns a store
// over it.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, data []byte) error {
	return os.WriteFile(s.Path(key), data, 0o640)
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path joins the root with the key. Keys are server-generated "{id}{ext}"
// names, so the result cannot escape the root.
func (s *LocalStore) Path(key string) string {
	return filepath.Join(s.root, filepath.Base(key))
}
