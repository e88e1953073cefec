package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	content := []byte("seventeen bytes!!")
	if err := store.Save(ctx, "a1.wav", content); err != nil {
		t.Fatalf("save error: %v", err)
	}

	r, size, err := store.Open(ctx, "a1.wav")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	defer r.Close()
	if size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), size)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch")
	}

	if err := store.Delete(ctx, "a1.wav"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, _, err := store.Open(ctx, "a1.wav"); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
}

func TestLocalStore_DeleteMissingIsNoError(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(context.Background(), "nope.bin"); err != nil {
		t.Fatalf("expected nil for missing blob, got %v", err)
	}
}

func TestLocalStore_PathConfinedToRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := store.Path("../../etc/passwd")
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		t.Fatalf("path escaped root: %s", p)
	}
}

func TestLocalStore_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data", "assets")
	if _, err := NewLocalStore(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}
