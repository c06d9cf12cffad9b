package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/policy-radar/app/database"
	"github.com/lysyi3m/policy-radar/app/source"
)

// SyncSourcesTask mirrors the catalog into the sources table.
type SyncSourcesTask struct {
	Task
	sources    []source.Source
	sourceRepo database.SourceRepository
}

func NewSyncSourcesTask(sources []source.Source, sourceRepo database.SourceRepository) *SyncSourcesTask {
	return &SyncSourcesTask{
		Task:       NewTask(TaskTypeSyncSources, ""),
		sources:    sources,
		sourceRepo: sourceRepo,
	}
}

func (t *SyncSourcesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, s := range t.sources {
		if err := t.sourceRepo.Upsert(ctx, s); err != nil {
			slog.Error("Task failed", "type", string(t.GetType()), "source", s.Name, "error", err)
			return fmt.Errorf("failed to sync source %q to database: %w", s.Name, err)
		}
	}

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"sources", len(t.sources),
		"duration", t.GetDuration())

	return nil
}
