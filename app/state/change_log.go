package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/storage"
)

// changeLogCap bounds the persisted ledger; the oldest entries are dropped
// first.
const changeLogCap = 50

type ChangeEntry struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Author  string    `json:"author"`
	AddedAt time.Time `json:"addedAt"`
}

type changeLogDocument struct {
	NewBooks  []ChangeEntry `json:"newBooks"`
	LastCheck time.Time     `json:"lastCheck"`
}

// ChangeLog records which canonical entries appeared since the previous
// aggregation run. It diffs the current library against the ids of the
// previously persisted snapshot, so it must run before the new snapshot is
// saved. Reporting side-channel only; it never feeds back into resolution.
type ChangeLog struct {
	storage      storage.Storage
	libraryStore *LibraryStore
}

func NewChangeLog(s storage.Storage, libraryStore *LibraryStore) *ChangeLog {
	return &ChangeLog{storage: s, libraryStore: libraryStore}
}

// DetectNew returns the entries of current that are absent from the
// persisted snapshot and appends them to the capped ledger.
func (c *ChangeLog) DetectNew(current book.Library) ([]book.NormalizedBook, int) {
	previousIDs := c.libraryStore.LoadIDs()

	var newBooks []book.NormalizedBook
	for _, b := range current {
		if _, ok := previousIDs[b.ID]; !ok {
			newBooks = append(newBooks, b)
		}
	}

	doc := c.load()
	now := time.Now().UTC()
	for _, b := range newBooks {
		doc.NewBooks = append(doc.NewBooks, ChangeEntry{
			ID:      b.ID,
			Title:   b.Title,
			Author:  b.Author,
			AddedAt: now,
		})
	}
	if len(doc.NewBooks) > changeLogCap {
		doc.NewBooks = doc.NewBooks[len(doc.NewBooks)-changeLogCap:]
	}
	doc.LastCheck = now

	if err := c.save(doc); err != nil {
		slog.Error("Failed to save change log", "error", err)
	}

	return newBooks, len(newBooks)
}

// Recent returns up to limit ledger entries, newest first.
func (c *ChangeLog) Recent(limit int) []ChangeEntry {
	doc := c.load()

	entries := doc.NewBooks
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	reversed := make([]ChangeEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		reversed = append(reversed, entries[i])
	}
	return reversed
}

// LastCheck returns the time of the last change detection, if any.
func (c *ChangeLog) LastCheck() (time.Time, bool) {
	doc := c.load()
	if doc.LastCheck.IsZero() {
		return time.Time{}, false
	}
	return doc.LastCheck, true
}

// Clear resets the ledger.
func (c *ChangeLog) Clear() {
	if err := c.save(changeLogDocument{LastCheck: time.Now().UTC()}); err != nil {
		slog.Error("Failed to clear change log", "error", err)
	}
}

func (c *ChangeLog) load() changeLogDocument {
	data, err := c.storage.Read(storage.DocChangeLog)
	if err != nil {
		if err != storage.ErrNotFound {
			slog.Warn("Failed to load change log, starting fresh", "error", err)
		}
		return changeLogDocument{}
	}

	var doc changeLogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Corrupt change log, starting fresh", "error", err)
		return changeLogDocument{}
	}

	return doc
}

func (c *ChangeLog) save(doc changeLogDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode change log: %w", err)
	}
	return c.storage.Write(storage.DocChangeLog, data)
}
