package tasks

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/lysyi3m/policy-radar/app/database"
	"github.com/lysyi3m/policy-radar/app/dedup"
	"github.com/lysyi3m/policy-radar/app/feed"
	"github.com/lysyi3m/policy-radar/app/relevance"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryBase   = 1500 * time.Millisecond
	DefaultMaxJitter   = time.Second
	backoffFactor      = 1.5
)

// Pipeline bundles the per-source stages shared by every FetchSourceTask.
type Pipeline struct {
	Fetcher   *Fetcher
	Extractor *feed.Extractor
	Filterer  *feed.Filterer
	Content   *feed.ContentExtractor
	Engine    *relevance.Engine
	Gate      *dedup.Gate
	History   database.FeedHistoryRepository

	MaxAttempts int
	RetryBase   time.Duration
	MaxJitter   time.Duration
	Now         func() time.Time
}

func (p *Pipeline) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// Backoff is the delay before attempt n+1: base * 1.5^n plus up to maxJitter.
func Backoff(base time.Duration, attempt int, maxJitter time.Duration) time.Duration {
	delay := time.Duration(float64(base) * math.Pow(backoffFactor, float64(attempt)))
	if maxJitter > 0 {
		delay += rand.N(maxJitter)
	}
	return delay
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
