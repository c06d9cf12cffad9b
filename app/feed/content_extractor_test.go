package feed

import (
	"strings"
	"testing"
)

func TestContentExtractor_Run_ValidHTML(t *testing.T) {
	extractor := NewContentExtractor(NewCleaner())

	htmlContent := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>RBI revises priority sector lending norms</title>
		<style>body { font-family: Arial; }</style>
	</head>
	<body>
		<script>var trackingCode = "analytics";</script>
		<header><nav>Home | Economy | Markets</nav></header>
		<main>
			<article>
				<h1>RBI revises priority sector lending norms</h1>
				<p>The Reserve Bank of India on Monday issued a circular revising the priority sector lending norms for scheduled commercial banks, widening the eligible categories for renewable energy and small businesses.</p>
				<p>The revised framework takes effect from the next financial year and requires banks to report their compliance every quarter through the existing regulatory returns.</p>
				<p>Officials said the amendment follows a consultation with stakeholders and aims to improve credit flow to underserved sectors without diluting prudential safeguards.</p>
			</article>
		</main>
		<footer><p>Copyright 2025</p></footer>
	</body>
	</html>
	`

	result, err := extractor.Run([]byte(htmlContent), "https://example.com/rbi-lending")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(result, "priority sector lending norms") {
		t.Errorf("Expected extracted content to contain main article text")
	}
	if strings.Contains(result, "trackingCode") {
		t.Errorf("Expected extracted content to exclude script content")
	}
	if strings.Contains(result, "font-family") {
		t.Errorf("Expected extracted content to exclude style content")
	}
	if strings.Contains(result, "<p>") {
		t.Errorf("Expected plain text, got markup")
	}
}

func TestContentExtractor_Run_EmptyData(t *testing.T) {
	extractor := NewContentExtractor(NewCleaner())

	for _, data := range [][]byte{nil, {}} {
		result, err := extractor.Run(data, "")
		if err == nil {
			t.Fatalf("Expected error for empty data")
		}
		if result != "" {
			t.Errorf("Expected empty result for empty data")
		}
		if err.Error() != "HTML data is empty" {
			t.Errorf("Expected error message 'HTML data is empty', got '%s'", err.Error())
		}
	}
}

func TestContentExtractor_Run_MinimalHTML(t *testing.T) {
	extractor := NewContentExtractor(NewCleaner())

	result, err := extractor.Run([]byte(`<html><body><p>Short text</p></body></html>`), "not a url")

	if err != nil {
		if result != "" {
			t.Errorf("Expected empty result when extraction fails")
		}
		return
	}
	if !strings.Contains(result, "Short text") {
		t.Errorf("Expected extracted content to contain the text")
	}
}

func TestContentExtractor_Run_CapsLength(t *testing.T) {
	extractor := NewContentExtractor(NewCleaner())

	var b strings.Builder
	b.WriteString("<html><body><article><h1>Budget analysis</h1>")
	for i := 0; i < 200; i++ {
		b.WriteString("<p>The union budget allocates additional funds to infrastructure, health and education while keeping the fiscal deficit target unchanged for the year.</p>")
	}
	b.WriteString("</article></body></html>")

	result, err := extractor.Run([]byte(b.String()), "https://example.com/budget")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len([]rune(result)) > maxContentLength {
		t.Errorf("Expected content capped at %d runes, got %d", maxContentLength, len([]rune(result)))
	}
}
