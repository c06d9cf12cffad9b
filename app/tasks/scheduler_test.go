package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/policy-radar/app/database"
	"github.com/lysyi3m/policy-radar/app/source"
)

// MockRunner counts runs instead of fetching anything.
type MockRunner struct {
	runs    atomic.Int32
	running atomic.Bool
	err     error
}

var _ Runner = (*MockRunner)(nil)

func (m *MockRunner) Run(ctx context.Context) (*RunResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.runs.Add(1)
	return &RunResult{Stats: RunStatistics{RunID: "run"}}, nil
}

func (m *MockRunner) Running() bool {
	return m.running.Load()
}

func (m *MockRunner) Last() *RunResult {
	return nil
}

// MockTask fails a fixed number of times before succeeding.
type MockTask struct {
	Task
	failures int
	calls    atomic.Int32
}

func (m *MockTask) Execute(ctx context.Context) error {
	if int(m.calls.Add(1)) <= m.failures {
		return errors.New("mock error")
	}
	return nil
}

// MockSourceRepository stores upserts in memory.
type MockSourceRepository struct {
	mu       sync.Mutex
	upserted []source.Source
	err      error
}

var _ database.SourceRepository = (*MockSourceRepository)(nil)

func (m *MockSourceRepository) Upsert(ctx context.Context, s source.Source) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, s)
	return nil
}

func (m *MockSourceRepository) List(ctx context.Context) ([]database.SourceRecord, error) {
	return nil, nil
}

func (m *MockSourceRepository) Reliabilities(ctx context.Context) (map[string]float64, error) {
	return nil, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met in time")
}

func TestNewTask(t *testing.T) {
	first := NewTask(TaskTypeFetchSource, "PIB")
	second := NewTask(TaskTypeFetchSource, "PIB")

	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected unique task IDs, got %q and %q", first.ID, second.ID)
	}
	if first.GetSourceName() != "PIB" || first.GetType() != TaskTypeFetchSource {
		t.Errorf("Unexpected task fields: %+v", first)
	}
	if first.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
	if !first.CanRetry() {
		t.Error("Expected new task to allow retries")
	}
	for i := 0; i < DefaultMaxRetries; i++ {
		first.IncrementRetryCount()
	}
	if first.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
}

func TestScheduler_RunsOnStart(t *testing.T) {
	runner := &MockRunner{}
	scheduler := NewScheduler(runner, time.Hour, time.Minute)

	scheduler.Start()
	defer scheduler.Stop()

	waitFor(t, func() bool { return runner.runs.Load() == 1 })
}

func TestScheduler_Trigger(t *testing.T) {
	runner := &MockRunner{}
	scheduler := NewScheduler(runner, time.Hour, time.Minute)

	runner.running.Store(true)
	if err := scheduler.Trigger(); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress, got %v", err)
	}

	runner.running.Store(false)
	if err := scheduler.Trigger(); err != nil {
		t.Fatalf("Expected trigger to be queued, got %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	// Queued trigger plus the startup run
	waitFor(t, func() bool { return runner.runs.Load() == 2 })
}

func TestScheduler_EnqueueTaskQueueFull(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, time.Hour, time.Minute)

	for i := 0; i < taskQueueSize; i++ {
		if err := scheduler.EnqueueTask(&MockTask{Task: NewTask(TaskTypeSyncSources, "")}); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}

	if err := scheduler.EnqueueTask(&MockTask{Task: NewTask(TaskTypeSyncSources, "")}); err == nil {
		t.Error("Expected error for full queue")
	}
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	scheduler := NewScheduler(&MockRunner{}, time.Hour, time.Minute)
	scheduler.Start()
	defer scheduler.Stop()

	task := &MockTask{Task: NewTask(TaskTypeSyncSources, ""), failures: 1}
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("Failed to enqueue task: %v", err)
	}

	// First retry is delayed by one second
	waitFor(t, func() bool { return task.calls.Load() == 2 })
	if task.GetRetryCount() != 1 {
		t.Errorf("Expected retry count 1, got %d", task.GetRetryCount())
	}
}

func TestSyncSourcesTask_Execute(t *testing.T) {
	repo := &MockSourceRepository{}
	sources := []source.Source{
		{Name: "PIB", URL: "https://pib.gov.in/rss", Category: "Government"},
		{Name: "Mint", URL: "https://livemint.com/rss", Category: "Business"},
	}

	task := NewSyncSourcesTask(sources, repo)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(repo.upserted) != 2 {
		t.Errorf("Expected 2 upserts, got %d", len(repo.upserted))
	}

	failing := NewSyncSourcesTask(sources, &MockSourceRepository{err: errors.New("locked")})
	if err := failing.Execute(context.Background()); err == nil {
		t.Error("Expected error from failing repository")
	}
}

func TestRunPipelineTask_Execute(t *testing.T) {
	runner := &MockRunner{}
	task := NewRunPipelineTask(runner)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if runner.runs.Load() != 1 {
		t.Errorf("Expected 1 run, got %d", runner.runs.Load())
	}
	if task.CanRetry() {
		t.Error("Expected pipeline runs not to be retried by the scheduler")
	}

	busy := NewRunPipelineTask(&MockRunner{err: ErrRunInProgress})
	if err := busy.Execute(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Expected ErrRunInProgress, got %v", err)
	}
}
