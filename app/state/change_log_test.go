package state

import (
	"fmt"
	"testing"

	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/storage"
)

func entry(i int) book.NormalizedBook {
	return book.NormalizedBook{
		RawBook: book.RawBook{Title: fmt.Sprintf("Book %d", i), Author: "Author"},
		ID:      fmt.Sprintf("book-%d-author", i),
		Sources: []book.Source{book.SourceManual},
	}
}

func TestChangeLog_DetectNewAgainstEmptySnapshot(t *testing.T) {
	mem := storage.NewMemoryStorage()
	libraryStore := NewLibraryStore(mem)
	changeLog := NewChangeLog(mem, libraryStore)

	current := book.Library{entry(1), entry(2)}
	newBooks, count := changeLog.DetectNew(current)

	if count != 2 {
		t.Fatalf("Expected 2 new books against an empty snapshot, got %d", count)
	}
	if len(newBooks) != 2 {
		t.Errorf("Expected returned entries to match count")
	}
}

func TestChangeLog_DetectNewDiffsAgainstSnapshot(t *testing.T) {
	mem := storage.NewMemoryStorage()
	libraryStore := NewLibraryStore(mem)
	changeLog := NewChangeLog(mem, libraryStore)

	if err := libraryStore.Save(book.Library{entry(1)}); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	current := book.Library{entry(1), entry(2)}
	newBooks, count := changeLog.DetectNew(current)

	if count != 1 {
		t.Fatalf("Expected 1 new book, got %d", count)
	}
	if newBooks[0].ID != "book-2-author" {
		t.Errorf("Expected book-2-author to be detected, got %s", newBooks[0].ID)
	}
}

func TestChangeLog_Cap(t *testing.T) {
	mem := storage.NewMemoryStorage()
	libraryStore := NewLibraryStore(mem)
	changeLog := NewChangeLog(mem, libraryStore)

	// 60 events over several detections leave exactly the most recent 50.
	for i := 0; i < 60; i++ {
		changeLog.DetectNew(book.Library{entry(i)})
		if err := libraryStore.Save(book.Library{entry(i)}); err != nil {
			t.Fatalf("Failed to save snapshot: %v", err)
		}
	}

	all := changeLog.Recent(0)
	if len(all) != 50 {
		t.Fatalf("Expected ledger capped at 50, got %d", len(all))
	}
	// Newest first; the oldest 10 must have been evicted.
	if all[0].ID != "book-59-author" {
		t.Errorf("Expected newest entry first, got %s", all[0].ID)
	}
	if all[len(all)-1].ID != "book-10-author" {
		t.Errorf("Expected oldest surviving entry book-10-author, got %s", all[len(all)-1].ID)
	}
}

func TestChangeLog_Recent(t *testing.T) {
	mem := storage.NewMemoryStorage()
	libraryStore := NewLibraryStore(mem)
	changeLog := NewChangeLog(mem, libraryStore)

	changeLog.DetectNew(book.Library{entry(1), entry(2), entry(3)})

	recent := changeLog.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(recent))
	}
	if recent[0].ID != "book-3-author" {
		t.Errorf("Expected newest first, got %s", recent[0].ID)
	}
}

func TestChangeLog_LastCheck(t *testing.T) {
	mem := storage.NewMemoryStorage()
	libraryStore := NewLibraryStore(mem)
	changeLog := NewChangeLog(mem, libraryStore)

	if _, ok := changeLog.LastCheck(); ok {
		t.Errorf("Expected no lastCheck before first detection")
	}

	changeLog.DetectNew(book.Library{entry(1)})

	if _, ok := changeLog.LastCheck(); !ok {
		t.Errorf("Expected lastCheck after detection")
	}
}

func TestChangeLog_Clear(t *testing.T) {
	mem := storage.NewMemoryStorage()
	libraryStore := NewLibraryStore(mem)
	changeLog := NewChangeLog(mem, libraryStore)

	changeLog.DetectNew(book.Library{entry(1)})
	changeLog.Clear()

	if got := changeLog.Recent(0); len(got) != 0 {
		t.Errorf("Expected empty ledger after clear, got %d entries", len(got))
	}
}

func TestLibraryStore_RoundTrip(t *testing.T) {
	store := NewLibraryStore(storage.NewMemoryStorage())

	if got := store.Load(); len(got) != 0 {
		t.Fatalf("Expected empty library before first save, got %d", len(got))
	}

	library := book.Library{entry(1), entry(2)}
	if err := store.Save(library); err != nil {
		t.Fatalf("Failed to save library: %v", err)
	}

	loaded := store.Load()
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(loaded))
	}
	if loaded[0].ID != "book-1-author" || loaded[1].ID != "book-2-author" {
		t.Errorf("Order not preserved: %v", loaded.IDs())
	}
}

func TestLibraryStore_CorruptSnapshotIsEmpty(t *testing.T) {
	mem := storage.NewMemoryStorage()
	if err := mem.Write(storage.DocLibrary, []byte("[broken")); err != nil {
		t.Fatalf("Failed to seed corrupt snapshot: %v", err)
	}

	store := NewLibraryStore(mem)
	if got := store.Load(); got != nil {
		t.Errorf("Expected corrupt snapshot to load as empty, got %d entries", len(got))
	}
}
