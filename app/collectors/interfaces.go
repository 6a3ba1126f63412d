package collectors

import (
	"context"

	"github.com/akislov/book-comb/app/book"
)

// Collector yields raw book observations for a single source. Collectors own
// the mapping from whatever the source exposes (files, feeds, HTML) into the
// RawBook shape and are expected to drop records missing title or author.
type Collector interface {
	Name() string
	Source() book.Source
	Collect(ctx context.Context) ([]book.RawBook, error)
}
