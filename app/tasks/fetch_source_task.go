package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/feed"
	"github.com/lysyi3m/policy-radar/app/source"
)

type FetchSourceTask struct {
	Task
	Source   source.Source
	pipeline *Pipeline
	result   SourceResult
}

func NewFetchSourceTask(src source.Source, pipeline *Pipeline) *FetchSourceTask {
	task := &FetchSourceTask{
		Task:     NewTask(TaskTypeFetchSource, src.Name),
		Source:   src,
		pipeline: pipeline,
	}
	task.MaxRetries = 0
	return task
}

// Result is valid once Execute has returned.
func (t *FetchSourceTask) Result() SourceResult {
	return t.result
}

// Execute walks the endpoints of the source until one yields articles, then
// filters, scores and dedup-checks them. Source failure is recorded in the
// result, not returned.
func (t *FetchSourceTask) Execute(ctx context.Context) error {
	t.result = SourceResult{
		Source: t.SourceName,
		Health: FeedHealth{Status: StatusFailed},
	}

	select {
	case <-ctx.Done():
		t.result.Health.LastError = ctx.Err().Error()
		return ctx.Err()
	default:
	}

	started := time.Now()
	defer func() {
		t.result.Health.Duration = time.Since(started)
	}()

	var drafts []*article.Article
	for i, endpoint := range t.Source.Endpoints() {
		articles, attempts, err := t.fetchEndpoint(ctx, endpoint)
		t.result.Health.Attempts += attempts
		t.recordOutcome(ctx, endpoint, len(articles) > 0, err)

		if len(articles) > 0 {
			drafts = articles
			t.result.Health.Status = StatusSuccess
			t.result.Health.Endpoint = endpoint
			t.result.Health.Method = MethodPrimary
			if i > 0 {
				t.result.Health.Method = MethodFallback
			}
			t.result.Health.LastError = ""
			break
		}

		if err != nil {
			t.result.Health.LastError = err.Error()
		}
		slog.Debug("Endpoint yielded nothing", "source", t.SourceName, "endpoint", endpoint, "attempts", attempts, "error", err)

		if ctx.Err() != nil {
			break
		}
	}

	if t.result.Health.Status != StatusSuccess {
		slog.Warn("Source failed", "source", t.SourceName, "attempts", t.result.Health.Attempts, "error", t.result.Health.LastError)
		return nil
	}

	t.process(ctx, drafts)

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"method", t.result.Health.Method,
		"extracted", len(drafts),
		"filtered", t.result.Filtered,
		"low_relevance", t.result.LowRelevance,
		"duplicates", t.result.Duplicates,
		"accepted", len(t.result.Accepted))

	return nil
}

// fetchEndpoint is the bounded retry loop for a single endpoint. A 200 whose
// extraction yields nothing counts as a retryable failure.
func (t *FetchSourceTask) fetchEndpoint(ctx context.Context, endpoint string) ([]*article.Article, int, error) {
	p := t.pipeline
	identity := p.Fetcher.NextIdentity()

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < p.maxAttempts(); attempt++ {
		attempts++

		resp, err := p.Fetcher.Fetch(ctx, endpoint, identity)
		if err == nil {
			result := p.Extractor.Run(resp.Body, feed.Hints{
				Source:      t.Source.Name,
				Category:    t.Source.Category,
				URL:         endpoint,
				ContentType: resp.ContentType,
				Format:      t.Source.Format,
				Selectors:   t.Source.Selectors,
				MaxItems:    t.Source.MaxItems,
				CollectedAt: p.now(),
			})
			if len(result.Articles) > 0 {
				return result.Articles, attempts, nil
			}
			lastErr = feed.ErrNoItems
		} else {
			lastErr = err
			if ctx.Err() != nil {
				return nil, attempts, lastErr
			}
			if isRejected(err) {
				identity = p.Fetcher.Rotate(identity)
				slog.Debug("Endpoint rejected client, rotating identity", "source", t.SourceName, "endpoint", endpoint, "error", err)
				continue
			}
			if !IsRetryable(err) {
				return nil, attempts, lastErr
			}
		}

		if attempt == p.maxAttempts()-1 {
			break
		}

		delay := Backoff(p.RetryBase, attempt, p.MaxJitter)
		slog.Debug("Retrying endpoint", "source", t.SourceName, "endpoint", endpoint, "attempt", attempts, "delay", delay.String(), "error", lastErr)
		if err := sleep(ctx, delay); err != nil {
			return nil, attempts, lastErr
		}
	}

	return nil, attempts, lastErr
}

func (t *FetchSourceTask) process(ctx context.Context, drafts []*article.Article) {
	p := t.pipeline

	kept, filtered := p.Filterer.Run(drafts, t.Source.Filters)
	t.result.Filtered = filtered

	if t.Source.ExtractContent {
		t.enrich(ctx, kept)
	}

	now := p.now()
	for _, a := range kept {
		if !p.Engine.Score(a, now) {
			t.result.LowRelevance++
			continue
		}

		decision := p.Gate.Check(ctx, a)
		if !decision.Accepted {
			t.result.Duplicates++
			slog.Debug("Duplicate article rejected", "source", t.SourceName, "title", a.Title, "reason", decision.Reason)
			continue
		}

		t.result.Accepted = append(t.result.Accepted, a)
	}

	t.result.Health.ArticleCount = len(t.result.Accepted)
}

// enrich replaces article content with the readable body of the linked page.
func (t *FetchSourceTask) enrich(ctx context.Context, articles []*article.Article) {
	p := t.pipeline
	if p.Content == nil {
		return
	}

	for _, a := range articles {
		if ctx.Err() != nil {
			return
		}

		resp, err := p.Fetcher.Fetch(ctx, a.URL, p.Fetcher.NextIdentity())
		if err != nil {
			slog.Debug("Failed to fetch article page", "source", t.SourceName, "url", a.URL, "error", err)
			continue
		}

		content, err := p.Content.Run(resp.Body, a.URL)
		if err != nil || content == "" {
			slog.Debug("Failed to extract article content", "source", t.SourceName, "url", a.URL, "error", err)
			continue
		}
		a.Content = content
	}
}

func (t *FetchSourceTask) recordOutcome(ctx context.Context, endpoint string, success bool, err error) {
	if t.pipeline.History == nil {
		return
	}

	errMsg := ""
	if !success && err != nil {
		errMsg = err.Error()
	}

	// The run context may already be cancelled; the outcome is still recorded.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if recordErr := t.pipeline.History.RecordFeedOutcome(recordCtx, t.SourceName, endpoint, success, errMsg); recordErr != nil {
		slog.Warn("Failed to record feed outcome", "source", t.SourceName, "endpoint", endpoint, "error", recordErr)
	}
}
