package storage

import (
	"errors"
)

// ErrNotFound is returned when a document has never been written.
var ErrNotFound = errors.New("document not found")

// Storage is a whole-document store. Every persisted concern (library
// snapshot, sync state, change log, analytics, insights) is one named JSON
// document, read and written in full. No partial updates, no versioning;
// callers serialize read-modify-write cycles themselves.
type Storage interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
}

// Document names shared by the stores.
const (
	DocLibrary   = "books"
	DocSyncState = "sync-state"
	DocChangeLog = "change-log"
	DocAnalytics = "analytics"
	DocInsights  = "insights"
)
