package enrichment

import (
	"context"
	"log/slog"

	"github.com/akislov/book-comb/app/book"
)

// Pipeline runs a fixed provider order over the library. Only books missing
// key data (cover, isbn or description) are looked up, and a provider's
// partial result never overwrites fields that are already populated.
// Provider failures are logged and skipped; enrichment never fails a run.
type Pipeline struct {
	enrichers []Enricher
}

func NewPipeline(enrichers ...Enricher) *Pipeline {
	return &Pipeline{enrichers: enrichers}
}

func (p *Pipeline) Run(ctx context.Context, library book.Library) book.Library {
	enrichedCount := 0

	for i := range library {
		if !needsEnrichment(&library[i]) {
			continue
		}

		for _, enricher := range p.enrichers {
			select {
			case <-ctx.Done():
				return library
			default:
			}

			enrichment, err := enricher.Enrich(ctx, library[i])
			if err != nil {
				slog.Warn("Enrichment failed",
					"provider", enricher.Name(), "book", library[i].Title, "error", err)
				continue
			}
			if enrichment == nil {
				continue
			}

			apply(&library[i], enrichment)
		}
		enrichedCount++
	}

	if enrichedCount > 0 {
		slog.Info("Enrichment complete", "enriched", enrichedCount, "total", len(library))
	}

	return library
}

func needsEnrichment(b *book.NormalizedBook) bool {
	return b.CoverURL == "" || b.ISBN == "" || b.Description == ""
}

// apply fills only the gaps; existing values win over fetched ones.
func apply(b *book.NormalizedBook, e *Enrichment) {
	if b.CoverURL == "" {
		b.CoverURL = e.CoverURL
	}
	if b.ISBN == "" {
		b.ISBN = e.ISBN
	}
	if b.Description == "" {
		b.Description = e.Description
	}
	if b.PageCount == 0 {
		b.PageCount = e.PageCount
	}
	if len(b.Subjects) == 0 {
		b.Subjects = e.Subjects
	}
}
