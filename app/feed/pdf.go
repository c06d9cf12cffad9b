package feed

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/lysyi3m/policy-radar/app/article"
)

const (
	maxPDFPages       = 10
	maxPDFSummary     = 300
	maxPDFTitleLength = 200
)

// PDFStrategy turns a notice published as a PDF into a single article.
type PDFStrategy struct {
	cleaner *Cleaner
}

func NewPDFStrategy(cleaner *Cleaner) *PDFStrategy {
	return &PDFStrategy{
		cleaner: cleaner,
	}
}

func (s *PDFStrategy) Name() string {
	return "pdf"
}

func (s *PDFStrategy) Applies(payload []byte, hints Hints) bool {
	return isPDF(payload, hints.ContentType)
}

func (s *PDFStrategy) Extract(payload []byte, hints Hints) ([]*article.Article, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	var textBuilder strings.Builder
	numPages := min(pdfReader.NumPage(), maxPDFPages)
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	raw := textBuilder.String()
	text := s.cleaner.Normalize(raw)
	if text == "" {
		return nil, fmt.Errorf("no text extracted from PDF")
	}

	title := pdfTitle(raw)
	if title == "" {
		name := strings.TrimSuffix(path.Base(hints.URL), ".pdf")
		title = fmt.Sprintf("%s document %s", hints.Source, name)
	}

	a := article.New(title, hints.URL, hints.Source, hints.Category, hints.CollectedAt)
	a.Summary = truncateRunes(text, maxPDFSummary)
	a.Content = truncateRunes(text, maxContentLength)

	return []*article.Article{a}, nil
}

func pdfTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if utf8.RuneCountInString(line) >= minTitleLength {
			return truncateRunes(line, maxPDFTitleLength)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
