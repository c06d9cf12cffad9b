package tasks

import (
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	MethodPrimary  = "primary"
	MethodFallback = "fallback"
)

// FeedHealth is the outcome of one source in one run.
type FeedHealth struct {
	Status       string        `json:"status"`
	ArticleCount int           `json:"article_count"`
	Method       string        `json:"method,omitempty"`
	Endpoint     string        `json:"endpoint,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	Attempts     int           `json:"attempts"`
	Duration     time.Duration `json:"duration"`
}

type RunStatistics struct {
	RunID                string         `json:"run_id"`
	StartedAt            time.Time      `json:"started_at"`
	FinishedAt           time.Time      `json:"finished_at"`
	Runtime              time.Duration  `json:"runtime"`
	TotalSources         int            `json:"total_sources"`
	SuccessfulSources    int            `json:"successful_sources"`
	FailedSources        int            `json:"failed_sources"`
	AbandonedSources     int            `json:"abandoned_sources"`
	TotalArticles        int            `json:"total_articles"`
	DuplicateArticles    int            `json:"duplicate_articles"`
	LowRelevanceArticles int            `json:"low_relevance_articles"`
	FilteredArticles     int            `json:"filtered_articles"`
	FallbackSuccesses    int            `json:"fallback_successes"`
	PersistFailures      int            `json:"persist_failures"`
	ArticlesByStrategy   map[string]int `json:"articles_by_strategy"`
}

type RunResult struct {
	Articles []*article.Article    `json:"articles"`
	Stats    RunStatistics         `json:"stats"`
	Health   map[string]FeedHealth `json:"health"`
}

// SourceResult is what a FetchSourceTask hands to the aggregator.
type SourceResult struct {
	Source       string
	Health       FeedHealth
	Accepted     []*article.Article
	Duplicates   int
	LowRelevance int
	Filtered     int
}
