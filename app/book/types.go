package book

import (
	"time"
)

// Book domain types shared across collectors, resolution and persistence.

type Source string

const (
	SourceGoodreads Source = "goodreads"
	SourceAudible   Source = "audible"
	SourceSpotify   Source = "spotify"
	SourcePhysical  Source = "physical"
	SourceManual    Source = "manual"
)

type Status string

const (
	StatusCurrentlyReading Status = "currently-reading"
	StatusRead             Status = "read"
	StatusWantToRead       Status = "want-to-read"
)

// RawBook is a single observation of a book from one source. Raw books are
// produced fresh on every aggregation run and never mutated after creation.
type RawBook struct {
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	CoverURL      string     `json:"coverUrl,omitempty"`
	ISBN          string     `json:"isbn,omitempty"`
	Source        Source     `json:"source"`
	Status        Status     `json:"status"`
	StartedDate   *time.Time `json:"startedDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
	Rating        float64    `json:"rating,omitempty"`
	Review        string     `json:"review,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

// NormalizedBook is a canonical library entry. Sources is append-only and
// always contains the originating source of every raw book merged into it.
type NormalizedBook struct {
	RawBook

	NormalizedTitle  string   `json:"normalizedTitle"`
	NormalizedAuthor string   `json:"normalizedAuthor"`
	ID               string   `json:"id"`
	Sources          []Source `json:"sources"`

	// Enrichment-only fields, never part of the dedup decision.
	Description string `json:"description,omitempty"`
	PageCount   int    `json:"pageCount,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
}

// Library is an ordered collection of canonical entries, unique by ID.
type Library []NormalizedBook

// IDs returns the canonical ids in library order.
func (l Library) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, b := range l {
		ids = append(ids, b.ID)
	}
	return ids
}

// BySource returns the entries that list the given source as a contributor.
func (l Library) BySource(source Source) Library {
	var out Library
	for _, b := range l {
		for _, s := range b.Sources {
			if s == source {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// HasSource reports whether the entry already lists the given source.
func (b *NormalizedBook) HasSource(source Source) bool {
	for _, s := range b.Sources {
		if s == source {
			return true
		}
	}
	return false
}
