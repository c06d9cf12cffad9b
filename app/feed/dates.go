package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var datePrefixPattern = regexp.MustCompile(`(?i)\b(last updated|updated|posted|published)\s*(on)?\s*:?\s*`)

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 January 2006",
	"2 January 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"January 02, 2006",
	"January 2, 2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"02/01/2006",
}

// DateParser tries explicit layouts first and falls back to fuzzy parsing.
type DateParser struct {
	layouts []string
}

func NewDateParser() *DateParser {
	return &DateParser{
		layouts: dateLayouts,
	}
}

// Parse returns false when no layout or fuzzy rule matched; callers keep the
// collection time as an estimate in that case.
func (p *DateParser) Parse(text string) (time.Time, bool) {
	text = strings.TrimSpace(datePrefixPattern.ReplaceAllString(text, ""))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseAny(text); err == nil && !t.IsZero() {
		return t, true
	}

	return time.Time{}, false
}
