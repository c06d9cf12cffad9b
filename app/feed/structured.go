package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
	"github.com/mmcdole/gofeed"
)

// StructuredStrategy parses RSS, Atom and JSON feeds. A gofeed.Parser keeps
// per-parse state, so each Extract call builds its own.
type StructuredStrategy struct {
	cleaner *Cleaner
	dates   *DateParser
}

func NewStructuredStrategy(cleaner *Cleaner, dates *DateParser) *StructuredStrategy {
	return &StructuredStrategy{
		cleaner: cleaner,
		dates:   dates,
	}
}

func (p *StructuredStrategy) Name() string {
	return "structured"
}

func (p *StructuredStrategy) Applies(payload []byte, hints Hints) bool {
	return hints.Format != source.FormatHTML && !isPDF(payload, hints.ContentType)
}

func (p *StructuredStrategy) Extract(payload []byte, hints Hints) ([]*article.Article, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	limit := hints.limit(MaxFeedItems)
	articles := make([]*article.Article, 0, min(len(feed.Items), limit))

	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		if item == nil {
			continue
		}

		normalized := p.normalizeItem(item, hints)
		if normalized == nil {
			continue
		}
		articles = append(articles, normalized)
	}

	return articles, nil
}

// normalizeItem returns nil for entries without a title or link.
func (p *StructuredStrategy) normalizeItem(item *gofeed.Item, hints Hints) *article.Article {
	title := p.cleaner.Text(item.Title)
	link := strings.TrimSpace(item.Link)
	if link == "" {
		for _, l := range item.Links {
			if l = strings.TrimSpace(l); l != "" {
				link = l
				break
			}
		}
	}

	if title == "" || link == "" {
		return nil
	}

	a := article.New(title, link, hints.Source, hints.Category, hints.CollectedAt)

	switch {
	case item.PublishedParsed != nil:
		a.SetPublished(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		a.SetPublished(*item.UpdatedParsed)
	default:
		if t, ok := p.dates.Parse(cmp.Or(item.Published, item.Updated)); ok {
			a.SetPublished(t)
		}
	}

	a.Content = p.cleaner.Text(item.Content)
	a.Summary = cmp.Or(p.cleaner.Text(item.Description), a.Content, hints.placeholderSummary())

	return a
}
