package book

import (
	"log/slog"
	"strings"
)

const defaultSimilarityThreshold = 0.92

// Resolver groups raw books that represent the same physical book and merges
// each group into one canonical entry.
//
// Matching is greedy first-match in insertion order: each incoming record is
// tested against existing entries in the order they were added, and the first
// entry passing the same-book predicate wins. There is no best-match search
// and no transitivity guarantee; feeding the same records in a different
// order can produce different groupings. Incremental runs therefore re-feed
// the previously persisted library before any new records.
type Resolver struct {
	threshold float64
}

func NewResolver() *Resolver {
	return &Resolver{threshold: defaultSimilarityThreshold}
}

// Resolve processes raw books in input order into a fresh library.
func (r *Resolver) Resolve(records []RawBook) Library {
	return r.ResolveInto(nil, records)
}

// ResolveInto continues resolution against an already-built library.
// The library is extended and returned; entries keep their ids across merges.
func (r *Resolver) ResolveInto(library Library, records []RawBook) Library {
	for _, record := range records {
		if record.Title == "" || record.Author == "" {
			slog.Warn("Skipping record with missing required fields",
				"title", record.Title, "author", record.Author, "source", record.Source)
			continue
		}

		matched := false
		for i := range library {
			if r.sameBook(record, &library[i]) {
				library[i] = mergeBook(library[i], record)
				matched = true
				break
			}
		}

		if !matched {
			library = append(library, r.newEntry(record))
		}
	}

	return library
}

// sameBook is the match predicate: author similarity above the threshold AND
// (title similarity above the threshold OR one normalized title a literal
// substring of the other).
func (r *Resolver) sameBook(record RawBook, entry *NormalizedBook) bool {
	title1 := NormalizeForComparison(record.Title)
	title2 := NormalizeForComparison(entry.Title)
	author1 := NormalizeAuthorForComparison(record.Author)
	author2 := NormalizeAuthorForComparison(entry.Author)

	authorSimilarity := Similarity(author1, author2)
	if authorSimilarity <= r.threshold {
		return false
	}

	titleSimilarity := Similarity(title1, title2)
	titleContains := strings.Contains(title1, title2) || strings.Contains(title2, title1)

	return titleSimilarity > r.threshold || titleContains
}

func (r *Resolver) newEntry(record RawBook) NormalizedBook {
	normalizedTitle := NormalizeForComparison(record.Title)
	normalizedAuthor := NormalizeAuthorForComparison(record.Author)

	return NormalizedBook{
		RawBook:          record,
		NormalizedTitle:  normalizedTitle,
		NormalizedAuthor: normalizedAuthor,
		ID:               BookID(record.Title, record.Author),
		Sources:          []Source{record.Source},
	}
}

// BookID derives the stable dedup key from normalized title and author.
// Distinct works that normalize identically collide on the same id; accepted
// limitation.
func BookID(title, author string) string {
	id := NormalizeForComparison(title) + "-" + NormalizeAuthorForComparison(author)
	return strings.ToLower(whitespaceRe.ReplaceAllString(id, "-"))
}
