package database

import (
	"context"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
)

type ArticleRepository interface {
	HashExists(ctx context.Context, hash string) (bool, error)
	// Put stores a new version of the article; it reports false when that
	// version already exists.
	Put(ctx context.Context, a *article.Article) (bool, error)
	FindByURLSince(ctx context.Context, url string, since time.Time) (bool, error)
	TitlesSince(ctx context.Context, since time.Time) ([]string, error)
	ListRecent(ctx context.Context, limit int) ([]*article.Article, error)
	Count(ctx context.Context) (int, error)
}

type FeedHistoryRepository interface {
	RecordFeedOutcome(ctx context.Context, sourceName, endpoint string, success bool, errMsg string) error
	List(ctx context.Context) ([]FeedHistory, error)
}

type SourceRepository interface {
	Upsert(ctx context.Context, s source.Source) error
	List(ctx context.Context) ([]SourceRecord, error)
	Reliabilities(ctx context.Context) (map[string]float64, error)
}
