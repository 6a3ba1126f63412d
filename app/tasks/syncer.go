package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/akislov/book-comb/app/analytics"
	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/cfg"
	"github.com/akislov/book-comb/app/collectors"
	"github.com/akislov/book-comb/app/enrichment"
	"github.com/akislov/book-comb/app/insights"
	"github.com/akislov/book-comb/app/state"
	"github.com/akislov/book-comb/app/storage"
)

// SyncResult summarizes a completed library sync.
type SyncResult struct {
	Collected int `json:"collected"`
	Total     int `json:"total"`
	New       int `json:"new"`
}

// Syncer runs the collect, normalize, resolve, persist pipeline. Runs are
// serialized: a sync triggered over the API while a scheduled one is in
// flight waits for the in-flight run to finish.
type Syncer struct {
	collectors   []collectors.Collector
	normalizer   *book.Normalizer
	resolver     *book.Resolver
	enricher     *enrichment.Pipeline
	generator    *insights.Generator
	libraryStore *state.LibraryStore
	syncState    *state.SyncStateStore
	changeLog    *state.ChangeLog
	storage      storage.Storage
	incremental  bool
	yearlyGoal   int
	mu           sync.Mutex
}

func NewSyncer(sourceCollectors []collectors.Collector, enricher *enrichment.Pipeline,
	generator *insights.Generator, libraryStore *state.LibraryStore,
	syncState *state.SyncStateStore, changeLog *state.ChangeLog, store storage.Storage) *Syncer {
	cfg := cfg.Get()

	return &Syncer{
		collectors:   sourceCollectors,
		normalizer:   book.NewNormalizer(),
		resolver:     book.NewResolver(),
		enricher:     enricher,
		generator:    generator,
		libraryStore: libraryStore,
		syncState:    syncState,
		changeLog:    changeLog,
		storage:      store,
		incremental:  cfg.Incremental,
		yearlyGoal:   cfg.YearlyGoal,
	}
}

func (s *Syncer) Run(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collected, failed := s.collect(ctx)

	var records []book.RawBook
	for i, c := range s.collectors {
		books := collected[i]
		if s.incremental {
			if lastSync, ok := s.syncState.GetLastSync(c.Source()); ok {
				before := len(books)
				books = state.FilterSince(books, lastSync)
				slog.Debug("Applied incremental watermark", "collector", c.Name(), "before", before, "after", len(books))
			}
		}
		records = append(records, books...)
	}

	normalized := s.normalizer.Run(records)

	library := s.libraryStore.Load()
	library = s.resolver.ResolveInto(library, normalized)

	if s.enricher != nil {
		library = s.enricher.Run(ctx, library)
	}

	sortLibrary(library)

	// The ledger diffs against the previously persisted snapshot, so it has
	// to run before the snapshot is overwritten.
	newBooks, newCount := s.changeLog.DetectNew(library)

	if err := s.libraryStore.Save(library); err != nil {
		return nil, fmt.Errorf("failed to save library: %w", err)
	}

	s.updateSyncState(library, failed)

	stats := analytics.Compute(library, s.yearlyGoal)
	if data, err := json.MarshalIndent(stats, "", "  "); err == nil {
		if err := s.storage.Write(storage.DocAnalytics, data); err != nil {
			slog.Warn("Failed to save analytics", "error", err)
		}
	}

	if s.generator != nil && s.generator.Enabled() && newCount > 0 {
		if err := s.GenerateInsights(ctx, library); err != nil {
			slog.Warn("Failed to generate insights", "error", err)
		}
	}

	collectedCount := 0
	for _, books := range collected {
		collectedCount += len(books)
	}

	result := &SyncResult{
		Collected: collectedCount,
		Total:     len(library),
		New:       newCount,
	}

	for _, b := range newBooks {
		slog.Info("New book", "title", b.Title, "author", b.Author)
	}

	return result, nil
}

// collect fans out to all collectors concurrently and returns per-collector
// results in collector order, plus the set of sources whose collector failed.
// A failed collector is non-fatal: previously synced data for that source
// stays in the library.
func (s *Syncer) collect(ctx context.Context) ([][]book.RawBook, map[book.Source]bool) {
	results := make([][]book.RawBook, len(s.collectors))
	errs := make([]error, len(s.collectors))

	var wg sync.WaitGroup
	for i, c := range s.collectors {
		wg.Add(1)
		go func(i int, c collectors.Collector) {
			defer wg.Done()
			books, err := c.Collect(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = books
		}(i, c)
	}
	wg.Wait()

	failed := make(map[book.Source]bool)
	for i, c := range s.collectors {
		if errs[i] != nil {
			slog.Warn("Collector failed, keeping previously synced data", "collector", c.Name(), "error", errs[i])
			failed[c.Source()] = true
		}
	}

	return results, failed
}

// updateSyncState advances the per-source watermark for every source that
// collected successfully. Failed sources keep their old watermark so the
// next incremental run does not skip their records.
func (s *Syncer) updateSyncState(library book.Library, failed map[book.Source]bool) {
	seen := make(map[book.Source]bool)
	for _, c := range s.collectors {
		source := c.Source()
		if seen[source] || failed[source] {
			continue
		}
		seen[source] = true

		var ids []string
		for _, b := range library {
			if b.HasSource(source) {
				ids = append(ids, b.ID)
			}
		}
		s.syncState.Update(source, len(ids), ids)
	}
}

// GenerateInsights produces a fresh insights document from the given library
// and persists it. A nil library reads the persisted snapshot.
func (s *Syncer) GenerateInsights(ctx context.Context, library book.Library) error {
	if s.generator == nil || !s.generator.Enabled() {
		return fmt.Errorf("insights generation is not configured")
	}

	if library == nil {
		library = s.libraryStore.Load()
	}

	result, err := s.generator.Generate(ctx, library)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode insights: %w", err)
	}

	return s.storage.Write(storage.DocInsights, data)
}

// sortLibrary orders books by completion date, newest first. Books without a
// completion date sort after dated ones, alphabetically by title.
func sortLibrary(library book.Library) {
	sort.SliceStable(library, func(i, j int) bool {
		a, b := library[i].CompletedDate, library[j].CompletedDate
		switch {
		case a != nil && b != nil:
			return a.After(*b)
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return library[i].Title < library[j].Title
		}
	})
}
