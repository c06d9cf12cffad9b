package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/lysyi3m/policy-radar/app/article"
)

const (
	FormatRSS  = "rss"
	FormatAtom = "atom"
	FormatJSON = "json"
)

// Generator renders the ranked articles as a syndication feed.
type Generator struct {
	link    string
	version string
}

func NewGenerator(link, version string) *Generator {
	return &Generator{
		link:    link,
		version: version,
	}
}

func (g *Generator) Run(articles []*article.Article, format string, updated time.Time) (string, error) {
	feed := &feeds.Feed{
		Title:       "Policy Radar",
		Link:        &feeds.Link{Href: g.link},
		Description: fmt.Sprintf("Ranked policy news (Policy Radar %s)", g.version),
		Id:          g.link,
		Updated:     updated,
		Created:     updated,
		Items:       make([]*feeds.Item, 0, len(articles)),
	}

	for _, a := range articles {
		description := a.Summary
		if len(a.Tags) > 0 {
			description = fmt.Sprintf("%s [%s]", a.Summary, strings.Join(a.Tags, ", "))
		}

		feed.Items = append(feed.Items, &feeds.Item{
			Title:       a.Title,
			Link:        &feeds.Link{Href: a.URL},
			Author:      &feeds.Author{Name: a.Source},
			Description: description,
			Content:     a.Content,
			Id:          a.ContentHash,
			Created:     a.PublishedAt,
			Updated:     a.CollectedAt,
		})
	}

	switch format {
	case FormatAtom:
		return feed.ToAtom()
	case FormatJSON:
		return feed.ToJSON()
	case FormatRSS, "":
		return feed.ToRss()
	default:
		return "", fmt.Errorf("unsupported feed format: %s", format)
	}
}
