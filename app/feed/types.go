package feed

import (
	"errors"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
)

const (
	MaxFeedItems     = 20
	MaxHTMLItems     = 15
	minTitleLength   = 15
	minSummaryLen    = 20
	maxContentLength = 5000
)

var ErrNoItems = errors.New("no items extracted")

// Hints describe where a payload came from.
type Hints struct {
	Source      string
	Category    string
	URL         string
	ContentType string
	Format      source.Format
	Selectors   []string
	MaxItems    int
	CollectedAt time.Time
}

func (h Hints) limit(def int) int {
	if h.MaxItems > 0 && h.MaxItems < def {
		return h.MaxItems
	}
	return def
}

func (h Hints) placeholderSummary() string {
	return "Policy news from " + h.Source
}

// Strategy turns a raw payload into draft articles.
type Strategy interface {
	Name() string
	Applies(payload []byte, hints Hints) bool
	Extract(payload []byte, hints Hints) ([]*article.Article, error)
}

type Result struct {
	Articles []*article.Article
	Strategy string
}
