package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type SyncLibraryTask struct {
	Task
	syncer *Syncer
}

func NewSyncLibraryTask(syncer *Syncer) *SyncLibraryTask {
	return &SyncLibraryTask{
		Task:   NewTask(TaskTypeSyncLibrary, "library"),
		syncer: syncer,
	}
}

func (t *SyncLibraryTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.syncer.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync library: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncLibrary",
		"duration", t.GetDuration(),
		"collected", result.Collected,
		"total", result.Total,
		"new", result.New)

	return nil
}
