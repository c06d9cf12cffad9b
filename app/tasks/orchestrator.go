package tasks

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/ranking"
	"github.com/lysyi3m/policy-radar/app/source"
)

var ErrRunInProgress = errors.New("pipeline run already in progress")

var errAbandoned = errors.New("abandoned: run budget exceeded")

const (
	DefaultWorkerCount      = 6
	MaxWorkerCount          = 10
	DefaultRunBudget        = 300 * time.Second
	DefaultMinDispatchDelay = 100 * time.Millisecond
	DefaultMaxDispatchDelay = 500 * time.Millisecond
)

// ArticleStore persists accepted articles.
type ArticleStore interface {
	Put(ctx context.Context, a *article.Article) (bool, error)
}

type Options struct {
	WorkerCount      int
	Budget           time.Duration
	MinDispatchDelay time.Duration
	MaxDispatchDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		WorkerCount:      DefaultWorkerCount,
		Budget:           DefaultRunBudget,
		MinDispatchDelay: DefaultMinDispatchDelay,
		MaxDispatchDelay: DefaultMaxDispatchDelay,
	}
}

var _ Runner = (*Orchestrator)(nil)

// Orchestrator runs one FetchSourceTask per catalog source over a bounded
// worker pool and assembles the ranked result.
type Orchestrator struct {
	catalog   SourceLister
	pipeline  *Pipeline
	store     ArticleStore
	assembler *ranking.Assembler
	opts      Options

	running atomic.Bool

	mu   sync.RWMutex
	last *RunResult
}

func NewOrchestrator(catalog SourceLister, pipeline *Pipeline, store ArticleStore, assembler *ranking.Assembler, opts Options) *Orchestrator {
	if opts.WorkerCount < 1 {
		opts.WorkerCount = DefaultWorkerCount
	}
	opts.WorkerCount = min(opts.WorkerCount, MaxWorkerCount)
	if opts.Budget <= 0 {
		opts.Budget = DefaultRunBudget
	}
	if opts.MaxDispatchDelay < opts.MinDispatchDelay {
		opts.MaxDispatchDelay = opts.MinDispatchDelay
	}

	return &Orchestrator{
		catalog:   catalog,
		pipeline:  pipeline,
		store:     store,
		assembler: assembler,
		opts:      opts,
	}
}

func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Last returns the result of the latest completed run, or nil.
func (o *Orchestrator) Last() *RunResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// Run performs one batch pass. It only fails when another run is active;
// every source failure is reported inside the result.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	sources := o.dispatchable()
	stats := RunStatistics{
		RunID:              uuid.NewString(),
		StartedAt:          o.pipeline.now(),
		TotalSources:       len(sources),
		ArticlesByStrategy: make(map[string]int),
	}
	health := make(map[string]FeedHealth, len(sources))

	o.pipeline.Gate.Reset()

	slog.Info("Run started", "run_id", stats.RunID, "sources", len(sources), "workers", min(o.opts.WorkerCount, len(sources)))

	runCtx, cancel := context.WithTimeout(ctx, o.opts.Budget)
	defer cancel()

	queue := make(chan *FetchSourceTask, len(sources))
	pending := make(map[string]bool, len(sources))
	for _, src := range sources {
		queue <- NewFetchSourceTask(src, o.pipeline)
		pending[src.Name] = true
	}
	close(queue)

	results := make(chan SourceResult, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < min(o.opts.WorkerCount, len(sources)); i++ {
		wg.Add(1)
		go o.worker(runCtx, i, queue, results, &wg)
	}

	var accepted []*article.Article
	aggregate := func(r SourceResult) {
		delete(pending, r.Source)
		accepted = append(accepted, o.aggregate(ctx, r, &stats, health)...)
	}

collect:
	for len(pending) > 0 {
		select {
		case r := <-results:
			aggregate(r)
		case <-runCtx.Done():
			break collect
		}
	}

	cancel()
	wg.Wait()
	close(results)
	for r := range results {
		aggregate(r)
	}

	for name := range pending {
		stats.AbandonedSources++
		health[name] = FeedHealth{Status: StatusFailed, LastError: errAbandoned.Error()}
		slog.Warn("Source abandoned", "run_id", stats.RunID, "source", name)
	}

	now := o.pipeline.now()
	stats.TotalArticles = len(accepted)

	ranked := o.assembler.Rank(accepted, now)
	if len(ranked) == 0 && stats.TotalSources > 0 && stats.SuccessfulSources == 0 {
		ranked = []*article.Article{
			ranking.SystemNotice(stats.FailedSources, stats.AbandonedSources, stats.TotalSources, now),
		}
	}

	stats.FinishedAt = now
	stats.Runtime = stats.FinishedAt.Sub(stats.StartedAt)

	result := &RunResult{
		Articles: ranked,
		Stats:    stats,
		Health:   health,
	}

	o.mu.Lock()
	o.last = result
	o.mu.Unlock()

	slog.Info("Run completed",
		"run_id", stats.RunID,
		"duration", stats.Runtime,
		"sources", stats.TotalSources,
		"successful", stats.SuccessfulSources,
		"failed", stats.FailedSources,
		"abandoned", stats.AbandonedSources,
		"articles", stats.TotalArticles,
		"duplicates", stats.DuplicateArticles,
		"low_relevance", stats.LowRelevanceArticles,
		"persist_failures", stats.PersistFailures)

	return result, nil
}

// worker executes queued tasks with a random pause between dispatches.
// Results of tasks that finish after the budget are dropped.
func (o *Orchestrator) worker(ctx context.Context, id int, queue <-chan *FetchSourceTask, results chan<- SourceResult, wg *sync.WaitGroup) {
	defer wg.Done()

	first := true
	for task := range queue {
		if ctx.Err() != nil {
			return
		}

		if !first {
			if err := sleep(ctx, o.dispatchDelay()); err != nil {
				return
			}
		}
		first = false

		task.Start()
		if err := task.Execute(ctx); err != nil {
			slog.Debug("Worker task interrupted", "worker_id", id, "type", string(task.GetType()), "source", task.GetSourceName(), "error", err)
		}

		if ctx.Err() != nil {
			return
		}
		results <- task.Result()
	}
}

// aggregate folds one source result into the run statistics and persists
// its accepted articles. Only the collecting goroutine calls it.
func (o *Orchestrator) aggregate(ctx context.Context, r SourceResult, stats *RunStatistics, health map[string]FeedHealth) []*article.Article {
	health[r.Source] = r.Health

	if r.Health.Status == StatusSuccess {
		stats.SuccessfulSources++
		if r.Health.Method == MethodFallback {
			stats.FallbackSuccesses++
		}
	} else {
		stats.FailedSources++
	}

	stats.DuplicateArticles += r.Duplicates
	stats.LowRelevanceArticles += r.LowRelevance
	stats.FilteredArticles += r.Filtered

	for _, a := range r.Accepted {
		stats.ArticlesByStrategy[a.Strategy]++

		if o.store == nil {
			continue
		}
		if _, err := o.store.Put(ctx, a); err != nil {
			stats.PersistFailures++
			slog.Error("Failed to persist article", "source", r.Source, "url", a.URL, "error", err)
		}
	}

	return r.Accepted
}

// dispatchable drops catalog entries that cannot be fetched.
func (o *Orchestrator) dispatchable() []source.Source {
	var sources []source.Source
	for _, src := range o.catalog.Enabled() {
		if err := source.Validate(src); err != nil {
			slog.Warn("Skipping malformed source", "source", src.Name, "error", err)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

func (o *Orchestrator) dispatchDelay() time.Duration {
	spread := o.opts.MaxDispatchDelay - o.opts.MinDispatchDelay
	if spread <= 0 {
		return o.opts.MinDispatchDelay
	}
	return o.opts.MinDispatchDelay + rand.N(spread)
}
