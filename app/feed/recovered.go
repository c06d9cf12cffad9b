package feed

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
)

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
	xmlDeclPattern      = regexp.MustCompile(`<\?xml[^>]*\?>`)
)

var (
	recoveredDateTags    = []string{"pubdate", "published", "updated", "date"}
	recoveredSummaryTags = []string{"description", "summary", "content", "encoded"}
)

// RecoveredStrategy scans malformed feeds for item/entry elements with a
// lenient decoder.
type RecoveredStrategy struct {
	cleaner *Cleaner
	dates   *DateParser
}

func NewRecoveredStrategy(cleaner *Cleaner, dates *DateParser) *RecoveredStrategy {
	return &RecoveredStrategy{
		cleaner: cleaner,
		dates:   dates,
	}
}

func (r *RecoveredStrategy) Name() string {
	return "recovered"
}

func (r *RecoveredStrategy) Applies(payload []byte, hints Hints) bool {
	return hints.Format != source.FormatHTML && isFeedShaped(payload, hints.ContentType)
}

type rawEntry struct {
	fields map[string]string
	link   string
}

func (r *RecoveredStrategy) Extract(payload []byte, hints Hints) ([]*article.Article, error) {
	entries := scanEntries(repairXML(payload))

	limit := hints.limit(MaxFeedItems)
	articles := make([]*article.Article, 0, min(len(entries), limit))

	for _, entry := range entries {
		if len(articles) >= limit {
			break
		}

		title := r.cleaner.Text(entry.fields["title"])
		link := strings.TrimSpace(entry.link)
		if link == "" {
			link = strings.TrimSpace(entry.fields["link"])
		}
		if title == "" || link == "" {
			continue
		}

		a := article.New(title, link, hints.Source, hints.Category, hints.CollectedAt)

		for _, tag := range recoveredDateTags {
			if text, ok := entry.fields[tag]; ok && strings.TrimSpace(text) != "" {
				if t, ok := r.dates.Parse(text); ok {
					a.SetPublished(t)
				}
				break
			}
		}

		for _, tag := range recoveredSummaryTags {
			if text, ok := entry.fields[tag]; ok {
				a.Summary = r.cleaner.Text(text)
				break
			}
		}
		if a.Summary == "" {
			a.Summary = hints.placeholderSummary()
		}

		articles = append(articles, a)
	}

	return articles, nil
}

func repairXML(payload []byte) []byte {
	fixed := controlCharsPattern.ReplaceAll(payload, nil)
	if bytes.Contains(fixed, []byte("<?xml")) {
		fixed = xmlDeclPattern.ReplaceAll(fixed, []byte(`<?xml version="1.0" encoding="UTF-8"?>`))
	}
	return fixed
}

// scanEntries walks tokens until the decoder gives up, keeping whatever
// entries were complete by then.
func scanEntries(data []byte) []rawEntry {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var (
		entries []rawEntry
		current *rawEntry
		field   string
		depth   int
		text    strings.Builder
	)

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			if current == nil {
				if name == "item" || name == "entry" {
					current = &rawEntry{fields: make(map[string]string)}
					depth = 0
				}
				continue
			}

			depth++
			if depth == 1 {
				field = name
				text.Reset()
				if name == "link" && current.link == "" {
					current.link = linkHref(t.Attr)
				}
			}

		case xml.CharData:
			if current != nil && depth >= 1 {
				text.Write(t)
			}

		case xml.EndElement:
			if current == nil {
				continue
			}

			name := strings.ToLower(t.Name.Local)
			if depth == 0 {
				if name == "item" || name == "entry" {
					entries = append(entries, *current)
					current = nil
				}
				continue
			}

			if depth == 1 {
				if _, exists := current.fields[field]; !exists {
					current.fields[field] = strings.TrimSpace(text.String())
				}
			}
			depth--
		}
	}

	return entries
}

func linkHref(attrs []xml.Attr) string {
	var href, rel string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "href":
			href = attr.Value
		case "rel":
			rel = attr.Value
		}
	}
	if rel != "" && rel != "alternate" {
		return ""
	}
	return href
}
