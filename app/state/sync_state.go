package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/storage"
)

// SourceState is the per-source sync watermark.
type SourceState struct {
	LastSync      time.Time `json:"lastSync"`
	LastBookCount int       `json:"lastBookCount"`
	LastBookIds   []string  `json:"lastBookIds,omitempty"`
}

// SyncStateStore tracks the last successful sync per source. The stored
// watermark decides whether the next run for a source is a first sync (fetch
// and accept everything) or an incremental one (filter to records at or past
// the watermark).
type SyncStateStore struct {
	storage storage.Storage
}

func NewSyncStateStore(s storage.Storage) *SyncStateStore {
	return &SyncStateStore{storage: s}
}

// GetLastSync returns the stored watermark for a source, if any.
func (s *SyncStateStore) GetLastSync(source book.Source) (time.Time, bool) {
	state := s.load()
	sourceState, ok := state[string(source)]
	if !ok || sourceState.LastSync.IsZero() {
		return time.Time{}, false
	}
	return sourceState.LastSync, true
}

// GetLastBookCount returns the book count recorded on the last sync.
func (s *SyncStateStore) GetLastBookCount(source book.Source) int {
	state := s.load()
	return state[string(source)].LastBookCount
}

// HasNewBooks reports whether the current count exceeds the last recorded one.
func (s *SyncStateStore) HasNewBooks(source book.Source, currentCount int) bool {
	return currentCount > s.GetLastBookCount(source)
}

// Update persists the current watermark for a source. Write failures are
// non-fatal; stale state on disk only means the next run refetches more.
func (s *SyncStateStore) Update(source book.Source, count int, ids []string) {
	state := s.load()
	state[string(source)] = SourceState{
		LastSync:      time.Now().UTC(),
		LastBookCount: count,
		LastBookIds:   ids,
	}

	if err := s.save(state); err != nil {
		slog.Error("Failed to save sync state", "source", source, "error", err)
	}
}

// All returns the full per-source state map.
func (s *SyncStateStore) All() map[string]SourceState {
	return s.load()
}

func (s *SyncStateStore) load() map[string]SourceState {
	data, err := s.storage.Read(storage.DocSyncState)
	if err != nil {
		if err != storage.ErrNotFound {
			slog.Warn("Failed to load sync state, starting fresh", "error", err)
		}
		return make(map[string]SourceState)
	}

	var state map[string]SourceState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("Corrupt sync state, starting fresh", "error", err)
		return make(map[string]SourceState)
	}
	if state == nil {
		state = make(map[string]SourceState)
	}

	return state
}

func (s *SyncStateStore) save(state map[string]SourceState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state: %w", err)
	}
	return s.storage.Write(storage.DocSyncState, data)
}

// FilterSince keeps records whose most relevant date (completion date if
// present, else start date) falls on or after the watermark. Records with no
// date at all are conservatively treated as new and always kept.
func FilterSince(books []book.RawBook, since time.Time) []book.RawBook {
	filtered := make([]book.RawBook, 0, len(books))
	for _, b := range books {
		relevant := b.CompletedDate
		if relevant == nil {
			relevant = b.StartedDate
		}

		if relevant == nil || !relevant.Before(since) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
