package feed

import (
	"bytes"
	"log/slog"
	"strings"
	"time"
)

type Extractor struct {
	strategies []Strategy
}

func NewExtractor(strategies ...Strategy) *Extractor {
	return &Extractor{
		strategies: strategies,
	}
}

// NewDefaultExtractor wires the strategies in order of decreasing structure.
func NewDefaultExtractor(cleaner *Cleaner, dates *DateParser) *Extractor {
	return NewExtractor(
		NewStructuredStrategy(cleaner, dates),
		NewRecoveredStrategy(cleaner, dates),
		NewHTMLStrategy(cleaner, dates, DefaultSiteSelectors()),
		NewPDFStrategy(cleaner),
	)
}

// Run tries each applicable strategy in order and stops at the first one that
// yields articles. Strategy errors only move extraction to the next strategy.
func (e *Extractor) Run(payload []byte, hints Hints) Result {
	if hints.CollectedAt.IsZero() {
		hints.CollectedAt = time.Now().UTC()
	}

	for _, strategy := range e.strategies {
		if !strategy.Applies(payload, hints) {
			continue
		}

		articles, err := strategy.Extract(payload, hints)
		if err != nil {
			slog.Debug("Extraction strategy failed", "strategy", strategy.Name(), "source", hints.Source, "error", err)
			continue
		}

		if len(articles) == 0 {
			slog.Debug("Extraction strategy yielded nothing", "strategy", strategy.Name(), "source", hints.Source)
			continue
		}

		for _, a := range articles {
			a.Strategy = strategy.Name()
		}

		return Result{Articles: articles, Strategy: strategy.Name()}
	}

	return Result{}
}

// isFeedShaped reports whether the payload looks like XML rather than HTML.
func isFeedShaped(payload []byte, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "xml") && !strings.Contains(ct, "html") {
		return true
	}

	head := payload
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.ToLower(bytes.TrimSpace(head))

	if bytes.Contains(head, []byte("<html")) || bytes.HasPrefix(head, []byte("<!doctype html")) {
		return false
	}

	return bytes.HasPrefix(head, []byte("<?xml")) ||
		bytes.Contains(head, []byte("<rss")) ||
		bytes.Contains(head, []byte("<feed")) ||
		bytes.Contains(head, []byte("<rdf:rdf"))
}

func isPDF(payload []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(payload), []byte("%PDF-"))
}
