package article

import (
	"math"
	"testing"
	"time"
)

func TestContentHash_Deterministic(t *testing.T) {
	h1 := ContentHash("RBI issues circular", "https://rbi.org.in/a")
	h2 := ContentHash("RBI issues circular", "https://rbi.org.in/a")

	if h1 != h2 {
		t.Errorf("Expected identical hashes, got %s and %s", h1, h2)
	}
	if len(h1) != 32 {
		t.Errorf("Expected 32 hex characters, got %d", len(h1))
	}
}

func TestContentHash_CaseInsensitive(t *testing.T) {
	if ContentHash("Budget 2025", "https://x.in/B") != ContentHash("budget 2025", "https://x.in/b") {
		t.Error("Expected hash to ignore case")
	}
}

func TestContentHash_DifferentInputs(t *testing.T) {
	pairs := [][2]string{
		{"Budget", "https://a.in/1"},
		{"Budget", "https://a.in/2"},
		{"Budget session", "https://a.in/1"},
	}

	seen := make(map[string]bool)
	for _, p := range pairs {
		h := ContentHash(p[0], p[1])
		if seen[h] {
			t.Errorf("Unexpected collision for %v", p)
		}
		seen[h] = true
	}
}

func TestNew_DefaultsPublishedToCollectionTime(t *testing.T) {
	collected := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	a := New("  Cabinet approves bill  ", " https://pib.gov.in/x ", "PIB", "Governance", collected)

	if a.Title != "Cabinet approves bill" {
		t.Errorf("Expected trimmed title, got %q", a.Title)
	}
	if a.URL != "https://pib.gov.in/x" {
		t.Errorf("Expected trimmed url, got %q", a.URL)
	}
	if !a.PublishedAt.Equal(collected) {
		t.Errorf("Expected published at %v, got %v", collected, a.PublishedAt)
	}
	if !a.DateEstimated {
		t.Error("Expected date to be marked as estimated")
	}
	if a.ContentHash != ContentHash(a.Title, a.URL) {
		t.Error("Expected content hash to be set at construction")
	}

	published := collected.Add(-2 * time.Hour)
	a.SetPublished(published)
	if a.DateEstimated || !a.PublishedAt.Equal(published) {
		t.Errorf("Expected parsed date to replace the default, got %v (estimated=%v)", a.PublishedAt, a.DateEstimated)
	}

	a.SetPublished(time.Time{})
	if !a.PublishedAt.Equal(published) {
		t.Error("Expected zero time to be ignored")
	}
}

func TestVersionKey_SaltedByCollectionTime(t *testing.T) {
	first := New("Title of article", "https://x.in/a", "S", "C", time.Unix(1000, 0))
	second := New("Title of article", "https://x.in/a", "S", "C", time.Unix(2000, 0))

	if first.ContentHash != second.ContentHash {
		t.Fatal("Expected equal content hashes")
	}
	if first.VersionKey() == second.VersionKey() {
		t.Error("Expected different version keys for different collection times")
	}
}

func TestScores_Recompute(t *testing.T) {
	s := Scores{
		PolicyRelevance:   0.8,
		SourceReliability: 1.0,
		Recency:           0.6,
		SectorSpecificity: 0.4,
		CrisisRelevance:   0.0,
	}
	w := DefaultWeights()
	s.Recompute(w)

	expected := 0.8*0.25 + 1.0*0.20 + 0.6*0.25 + 0.4*0.10
	if math.Abs(s.Overall-expected) > 1e-9 {
		t.Errorf("Expected overall %.4f, got %.4f", expected, s.Overall)
	}
}

func TestScores_RecomputeClamps(t *testing.T) {
	s := Scores{PolicyRelevance: 1.7, SourceReliability: -0.2, Recency: math.NaN(), SectorSpecificity: 2, CrisisRelevance: 1}
	s.Recompute(DefaultWeights())

	for name, v := range map[string]float64{
		"policy":  s.PolicyRelevance,
		"source":  s.SourceReliability,
		"recency": s.Recency,
		"sector":  s.SectorSpecificity,
		"crisis":  s.CrisisRelevance,
		"overall": s.Overall,
	} {
		if v < 0 || v > 1 {
			t.Errorf("Expected %s within [0,1], got %f", name, v)
		}
	}
}

func TestWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Errorf("Expected default weights to be valid, got %v", err)
	}

	bad := DefaultWeights()
	bad.Crisis = 0.5
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for weights not summing to 1")
	}

	negative := Weights{Policy: 1.2, Reliability: -0.2}
	if err := negative.Validate(); err == nil {
		t.Error("Expected error for negative weight")
	}
}
