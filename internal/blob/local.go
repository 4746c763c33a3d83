package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes uploads to a flat directory and serves them under
// /uploads/. Development fallback when MinIO is not configured.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	// Names are generated by the caller, but never trust them as paths.
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if size > 0 && written != size {
		_ = os.Remove(path)
		return "", fmt.Errorf("short write: wrote %d of %d bytes", written, size)
	}

	return "/uploads/" + name, nil
}

func (s *LocalStore) Remove(ctx context.Context, name string) error {
	name = filepath.Base(strings.TrimPrefix(name, "/uploads/"))
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

// Dir exposes the storage directory for the static file handler.
func (s *LocalStore) Dir() string {
	return s.dir
}
