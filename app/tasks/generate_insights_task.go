package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type GenerateInsightsTask struct {
	Task
	syncer *Syncer
}

func NewGenerateInsightsTask(syncer *Syncer) *GenerateInsightsTask {
	return &GenerateInsightsTask{
		Task:   NewTask(TaskTypeGenerateInsights, "insights"),
		syncer: syncer,
	}
}

func (t *GenerateInsightsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.syncer.GenerateInsights(ctx, nil); err != nil {
		return fmt.Errorf("failed to generate insights: %w", err)
	}

	slog.Info("Task completed",
		"type", "GenerateInsights",
		"duration", t.GetDuration())

	return nil
}
