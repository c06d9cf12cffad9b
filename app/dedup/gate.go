package dedup

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
)

const (
	DefaultWindow       = 48 * time.Hour
	similarityThreshold = 0.8
)

// HistoryStore is the slice of the persistent store the gate needs.
type HistoryStore interface {
	HashExists(ctx context.Context, hash string) (bool, error)
	FindByURLSince(ctx context.Context, url string, since time.Time) (bool, error)
	TitlesSince(ctx context.Context, since time.Time) ([]string, error)
}

type Decision struct {
	Accepted bool
	Reason   string
}

const (
	ReasonSeenThisRun  = "seen this run"
	ReasonStoredHash   = "hash already stored"
	ReasonSameURL      = "url seen recently"
	ReasonSimilarTitle = "similar title seen recently"
)

type Options struct {
	Window   time.Duration
	CrossRun bool
	Disabled bool
}

func DefaultOptions() Options {
	return Options{
		Window:   DefaultWindow,
		CrossRun: true,
	}
}

// Gate rejects articles already seen in this run or recently persisted.
type Gate struct {
	store HistoryStore
	opts  Options
	now   func() time.Time

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewGate(store HistoryStore, opts Options) *Gate {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}

	return &Gate{
		store: store,
		opts:  opts,
		now:   time.Now,
		seen:  make(map[string]struct{}),
	}
}

// Reset clears the in-run hash set. Call it at the start of every run.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = make(map[string]struct{})
}

func (g *Gate) Check(ctx context.Context, a *article.Article) Decision {
	if g.opts.Disabled {
		return Decision{Accepted: true}
	}

	if !g.markSeen(a.ContentHash) {
		return Decision{Reason: ReasonSeenThisRun}
	}

	if !g.opts.CrossRun || g.store == nil {
		return Decision{Accepted: true}
	}

	stored, err := g.store.HashExists(ctx, a.ContentHash)
	if err != nil {
		slog.Warn("Duplicate lookup failed", "check", "hash", "url", a.URL, "error", err)
	} else if stored {
		return Decision{Reason: ReasonStoredHash}
	}

	since := g.now().Add(-g.opts.Window)

	found, err := g.store.FindByURLSince(ctx, a.URL, since)
	if err != nil {
		slog.Warn("Duplicate lookup failed", "check", "url", "url", a.URL, "error", err)
	} else if found {
		return Decision{Reason: ReasonSameURL}
	}

	titles, err := g.store.TitlesSince(ctx, since)
	if err != nil {
		slog.Warn("Duplicate lookup failed", "check", "title", "url", a.URL, "error", err)
		return Decision{Accepted: true}
	}

	for _, title := range titles {
		if Jaccard(a.Title, title) > similarityThreshold {
			return Decision{Reason: ReasonSimilarTitle}
		}
	}

	return Decision{Accepted: true}
}

// markSeen reports false when the hash was already present.
func (g *Gate) markSeen(hash string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[hash]; ok {
		return false
	}
	g.seen[hash] = struct{}{}
	return true
}

// Jaccard is the word-set similarity of two titles, 0 when either is empty.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
