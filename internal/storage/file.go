package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"orders-lake/internal/domain"
)

var _ domain.ObjectStore = (*FileStore)(nil)

// FileStore maps buckets to directories below Root. Used for local
// development, where DuckDB reads the same files directly.
type FileStore struct {
	Root string
}

// NewFileStore creates a FileStore rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

// Path returns the filesystem path for bucket/key, rejecting traversal outside Root.
func (f *FileStore) Path(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", domain.ErrValidation("bucket and key are required")
	}
	root := filepath.Clean(f.Root)
	p := filepath.Join(root, bucket, filepath.FromSlash(key))
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", domain.ErrValidation("key %q escapes storage root", key)
	}
	return p, nil
}

// Get reads bucket/key from disk.
func (f *FileStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := f.Path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // path is confined to Root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound("object %s/%s not found", bucket, key)
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// Put writes bucket/key atomically via a temp file and rename.
func (f *FileStore) Put(_ context.Context, bucket, key string, data []byte) error {
	p, err := f.Path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", p, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", p, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename into %s: %w", p, err)
	}
	return nil
}
