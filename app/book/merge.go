package book

import (
	"time"
)

// Field-by-field merge policy applied when an incoming raw book matches an
// existing canonical entry. Each rule is independent:
//
//	sources        union, append-only
//	coverUrl, isbn keep existing when present, otherwise adopt incoming
//	startedDate    earliest wins
//	completedDate  latest wins
//	rating         highest wins
//	tags           ordered set union, existing first
//	review         longer text wins
//
// The entry's id never changes across merges.
func mergeBook(existing NormalizedBook, incoming RawBook) NormalizedBook {
	merged := existing

	if !merged.HasSource(incoming.Source) {
		merged.Sources = append(merged.Sources, incoming.Source)
	}

	if merged.CoverURL == "" {
		merged.CoverURL = incoming.CoverURL
	}
	if merged.ISBN == "" {
		merged.ISBN = incoming.ISBN
	}

	merged.StartedDate = earlierDate(merged.StartedDate, incoming.StartedDate)
	merged.CompletedDate = laterDate(merged.CompletedDate, incoming.CompletedDate)

	if incoming.Rating > merged.Rating {
		merged.Rating = incoming.Rating
	}

	merged.Tags = unionTags(merged.Tags, incoming.Tags)

	if len(incoming.Review) > len(merged.Review) {
		merged.Review = incoming.Review
	}

	return merged
}

func earlierDate(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Before(*a) {
		return b
	}
	return a
}

func laterDate(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}

// unionTags keeps insertion order: existing tags first, then incoming tags
// not already present.
func unionTags(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}

	seen := make(map[string]struct{}, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	for _, t := range incoming {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}
