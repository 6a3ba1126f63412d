package state

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/storage"
)

// LibraryStore persists the canonical library snapshot as one JSON document.
type LibraryStore struct {
	storage storage.Storage
}

func NewLibraryStore(s storage.Storage) *LibraryStore {
	return &LibraryStore{storage: s}
}

// Load returns the persisted snapshot. A missing or unreadable document is
// an empty library, never an error.
func (s *LibraryStore) Load() book.Library {
	data, err := s.storage.Read(storage.DocLibrary)
	if err != nil {
		if err != storage.ErrNotFound {
			slog.Warn("Failed to load library snapshot, starting fresh", "error", err)
		}
		return nil
	}

	var library book.Library
	if err := json.Unmarshal(data, &library); err != nil {
		slog.Warn("Corrupt library snapshot, starting fresh", "error", err)
		return nil
	}

	return library
}

// LoadIDs returns the set of canonical ids in the persisted snapshot.
func (s *LibraryStore) LoadIDs() map[string]struct{} {
	library := s.Load()
	ids := make(map[string]struct{}, len(library))
	for _, b := range library {
		ids[b.ID] = struct{}{}
	}
	return ids
}

func (s *LibraryStore) Save(library book.Library) error {
	data, err := json.MarshalIndent(library, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}

	if err := s.storage.Write(storage.DocLibrary, data); err != nil {
		return fmt.Errorf("failed to save library snapshot: %w", err)
	}

	return nil
}
