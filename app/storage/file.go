package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStorage keeps one <name>.json file per document under a data
// directory.
type FileStorage struct {
	dataDir string
}

func NewFileStorage(dataDir string) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStorage{dataDir: dataDir}, nil
}

func (s *FileStorage) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the document via a temp file and rename, so a concurrent
// reader never observes a partially written document.
func (s *FileStorage) Write(name string, data []byte) error {
	path := s.path(name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	return nil
}

func (s *FileStorage) path(name string) string {
	return filepath.Join(s.dataDir, name+".json")
}
