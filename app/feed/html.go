package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
)

const minCandidates = 2

// HTMLStrategy scrapes listing pages using selector tables and heading
// heuristics.
type HTMLStrategy struct {
	cleaner *Cleaner
	dates   *DateParser
	sites   []SiteSelector
}

func NewHTMLStrategy(cleaner *Cleaner, dates *DateParser, sites []SiteSelector) *HTMLStrategy {
	return &HTMLStrategy{
		cleaner: cleaner,
		dates:   dates,
		sites:   sites,
	}
}

func (s *HTMLStrategy) Name() string {
	return "html"
}

func (s *HTMLStrategy) Applies(payload []byte, hints Hints) bool {
	if hints.Format == source.FormatFeed || isPDF(payload, hints.ContentType) {
		return false
	}
	return !isFeedShaped(payload, hints.ContentType)
}

func (s *HTMLStrategy) Extract(payload []byte, hints Hints) ([]*article.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(hints.URL)
	if err != nil {
		base = nil
	}

	candidates := s.findCandidates(doc, base, hints)
	limit := hints.limit(MaxHTMLItems)

	var articles []*article.Article
	seen := make(map[string]bool)

	candidates.EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= limit {
			return false
		}

		a := s.extractItem(item, base, hints)
		if a == nil || seen[a.URL] {
			return true
		}
		seen[a.URL] = true
		articles = append(articles, a)
		return true
	})

	return articles, nil
}

func (s *HTMLStrategy) findCandidates(doc *goquery.Document, base *url.URL, hints Hints) *goquery.Selection {
	var selectors []string
	selectors = append(selectors, hints.Selectors...)

	domain := ""
	if base != nil {
		domain = strings.ToLower(base.Host)
	}
	sourceName := strings.ToLower(hints.Source)
	for _, site := range s.sites {
		key := strings.ToLower(site.Key)
		if (domain != "" && strings.Contains(domain, key)) || strings.Contains(sourceName, key) {
			selectors = append(selectors, site.Selector)
		}
	}

	selectors = append(selectors, genericSelectors...)

	for _, selector := range selectors {
		found := doc.Find(selector)
		if found.Length() >= minCandidates {
			return found
		}
	}

	return headingCandidates(doc)
}

// headingCandidates is the last resort: linked headings, using each heading's
// container as the item.
func headingCandidates(doc *goquery.Document) *goquery.Selection {
	result := doc.Selection.Slice(0, 0)

	doc.Find("h1, h2, h3").EachWithBreak(func(i int, heading *goquery.Selection) bool {
		if i >= MaxHTMLItems {
			return false
		}
		if heading.Find("a").Length() == 0 {
			return true
		}

		parent := heading.Parent()
		if parent.Length() > 0 && goquery.NodeName(parent) != "body" {
			result = result.AddSelection(parent)
		} else {
			result = result.AddSelection(heading)
		}
		return true
	})

	return result
}

func (s *HTMLStrategy) extractItem(item *goquery.Selection, base *url.URL, hints Hints) *article.Article {
	var title, link string

	item.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		text := s.cleaner.Normalize(heading.Text())
		if text == "" {
			return true
		}
		title = text
		if href, ok := heading.Find("a[href]").First().Attr("href"); ok {
			link = resolveURL(base, href)
		}
		return false
	})

	if title == "" {
		for _, selector := range []string{".title", ".headline", ".heading"} {
			if text := s.cleaner.Normalize(item.Find(selector).First().Text()); text != "" {
				title = text
				break
			}
		}
	}

	// Candidates that are themselves anchors carry their own text and href.
	if goquery.NodeName(item) == "a" {
		if title == "" {
			title = s.cleaner.Normalize(item.Text())
		}
		if link == "" {
			if href, ok := item.Attr("href"); ok {
				link = resolveURL(base, href)
			}
		}
	}

	if link == "" {
		var anchorText string
		link, anchorText = s.pickAnchor(item, base)
		if title == "" {
			title = anchorText
		}
	}

	if utf8.RuneCountInString(title) < minTitleLength || link == "" {
		return nil
	}

	a := article.New(title, link, hints.Source, hints.Category, hints.CollectedAt)

	item.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := s.cleaner.Normalize(p.Text())
		if text != title && utf8.RuneCountInString(text) >= minSummaryLen {
			a.Summary = text
			return false
		}
		return true
	})
	if a.Summary == "" {
		a.Summary = hints.placeholderSummary()
	}

	if dateEl := item.Find(".date, time, .meta-date, .timestamp").First(); dateEl.Length() > 0 {
		text, ok := dateEl.Attr("datetime")
		if !ok || strings.TrimSpace(text) == "" {
			text = dateEl.Text()
		}
		if t, ok := s.dates.Parse(text); ok {
			a.SetPublished(t)
		}
	}

	return a
}

// pickAnchor prefers the first anchor with descriptive text, then any anchor.
// The text is only returned for descriptive anchors.
func (s *HTMLStrategy) pickAnchor(item *goquery.Selection, base *url.URL) (string, string) {
	anchors := item.Find("a[href]")

	var link, text string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		candidate := s.cleaner.Normalize(a.Text())
		if utf8.RuneCountInString(candidate) > minTitleLength {
			if href, ok := a.Attr("href"); ok {
				if link = resolveURL(base, href); link != "" {
					text = candidate
				}
			}
			return link == ""
		}
		return true
	})

	if link == "" {
		anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			link = resolveURL(base, href)
			return link == ""
		})
	}

	return link, text
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
