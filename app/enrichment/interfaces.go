package enrichment

import (
	"context"

	"github.com/akislov/book-comb/app/book"
)

// Enrichment is a partial set of metadata fields fetched from an external
// provider. Empty fields mean "nothing found"; they never overwrite data the
// library already has.
type Enrichment struct {
	CoverURL    string
	ISBN        string
	Description string
	PageCount   int
	Subjects    []string
}

// Enricher fetches metadata for a canonical entry from one external source.
// Implementations handle their own rate limiting and data mapping.
// Returning (nil, nil) means "not found" and lets the next provider try.
type Enricher interface {
	Name() string
	Enrich(ctx context.Context, b book.NormalizedBook) (*Enrichment, error)
}
