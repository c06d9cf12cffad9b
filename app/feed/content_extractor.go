package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-shiori/go-readability"
)

// ContentExtractor pulls the readable body text out of an article page.
type ContentExtractor struct {
	cleaner *Cleaner
}

func NewContentExtractor(cleaner *Cleaner) *ContentExtractor {
	return &ContentExtractor{
		cleaner: cleaner,
	}
}

func (e *ContentExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	var parsedURL *url.URL
	if u, err := url.Parse(pageURL); err == nil && u.IsAbs() {
		parsedURL = u
	}

	page, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := e.cleaner.Normalize(page.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", page.Title,
		"content_length", len(text))

	return truncateRunes(text, maxContentLength), nil
}
