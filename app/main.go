package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akislov/book-comb/app/api"
	"github.com/akislov/book-comb/app/cfg"
	"github.com/akislov/book-comb/app/collectors"
	"github.com/akislov/book-comb/app/enrichment"
	"github.com/akislov/book-comb/app/insights"
	"github.com/akislov/book-comb/app/state"
	"github.com/akislov/book-comb/app/storage"
	"github.com/akislov/book-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Book Comb server", "version", appCfg.Version)

	store, closeStore, err := newStorage(appCfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", appCfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	slog.Info("Storage initialized", "backend", appCfg.StorageBackend)

	libraryStore := state.NewLibraryStore(store)
	syncState := state.NewSyncStateStore(store)
	changeLog := state.NewChangeLog(store, libraryStore)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	sourceCollectors := newCollectors(appCfg, httpClient)
	if len(sourceCollectors) == 0 {
		slog.Warn("No collectors configured, syncs will be empty")
	}
	for _, c := range sourceCollectors {
		slog.Info("Collector registered", "collector", c.Name(), "source", string(c.Source()))
	}

	var enricher *enrichment.Pipeline
	if appCfg.EnableEnrichment {
		enricher = enrichment.NewPipeline(
			enrichment.NewOpenLibraryEnricher(httpClient, appCfg.UserAgent),
			enrichment.NewGoogleBooksEnricher(httpClient, appCfg.UserAgent),
		)
		slog.Info("Metadata enrichment enabled")
	}

	generator := insights.NewGenerator(appCfg.GeminiAPIKey, appCfg.GeminiModel)
	if generator.Enabled() {
		slog.Info("Reading insights enabled", "model", appCfg.GeminiModel)
	}

	syncer := tasks.NewSyncer(sourceCollectors, enricher, generator, libraryStore, syncState, changeLog, store)

	scheduler := tasks.NewScheduler(syncer)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", (time.Duration(appCfg.SyncInterval) * time.Second).String())

	handler := api.NewHandler(libraryStore, syncState, changeLog, store, scheduler, syncer, appCfg.YearlyGoal)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and storage are stopped via defer
	slog.Info("Shutdown complete")
}

func newStorage(appCfg *cfg.Cfg) (storage.Storage, func(), error) {
	switch appCfg.StorageBackend {
	case "sqlite":
		s, err := storage.NewSQLiteStorage(appCfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("Failed to close database", "error", err)
			}
		}, nil
	case "memory":
		return storage.NewMemoryStorage(), func() {}, nil
	default:
		s, err := storage.NewFileStorage(appCfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func newCollectors(appCfg *cfg.Cfg, httpClient *http.Client) []collectors.Collector {
	var cs []collectors.Collector

	if appCfg.BooksDir != "" {
		cs = append(cs, collectors.NewManualCollector(appCfg.BooksDir))
	}

	if appCfg.GoodreadsUserID != "" {
		cs = append(cs, collectors.NewGoodreadsRSSCollector(appCfg.GoodreadsUserID, httpClient, appCfg.UserAgent))
		cs = append(cs, collectors.NewGoodreadsShelfCollector(appCfg.GoodreadsUserID, httpClient, appCfg.UserAgent))
	}

	return cs
}
