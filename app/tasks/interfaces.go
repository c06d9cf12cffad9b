package tasks

import (
	"context"

	"github.com/lysyi3m/policy-radar/app/source"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to queue pipeline runs and
// catalog syncs.
//
//	scheduler := NewScheduler(orchestrator, interval, timeout)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRunPipelineTask(orchestrator))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Runner executes one batch run. Implemented by Orchestrator.
type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
	Running() bool
	Last() *RunResult
}

// SourceLister is the slice of the source catalog the orchestrator reads.
type SourceLister interface {
	Enabled() []source.Source
}
