package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores entries as JSON files. When path ends in .json every
// key maps to that file; otherwise key k lives at path/k.json.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) (*FileBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("file backend: path is required")
	}
	return &FileBackend{path: path}, nil
}

func (f *FileBackend) file(key string) string {
	if strings.HasSuffix(f.path, ".json") {
		return f.path
	}
	return filepath.Join(f.path, key+".json")
}

func (f *FileBackend) Read(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(f.file(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// Write replaces the entry atomically through a temp file in the same dir.
func (f *FileBackend) Write(_ context.Context, key string, value []byte) error {
	target := f.file(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".history-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (f *FileBackend) Close() error { return nil }
