package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type RunPipelineTask struct {
	Task
	runner Runner
}

func NewRunPipelineTask(runner Runner) *RunPipelineTask {
	task := &RunPipelineTask{
		Task:   NewTask(TaskTypeRunPipeline, ""),
		runner: runner,
	}
	task.MaxRetries = 0
	return task
}

func (t *RunPipelineTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run pipeline: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"run_id", result.Stats.RunID,
		"duration", t.GetDuration(),
		"articles", len(result.Articles))

	return nil
}
