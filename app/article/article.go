package article

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	MaxTags     = 3
	MaxKeywords = 10
)

// Article is the normalized record every pipeline stage operates on.
type Article struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Source   string `json:"source"`
	Category string `json:"category"`

	PublishedAt   time.Time `json:"published_at"`
	DateEstimated bool      `json:"date_estimated"` // PublishedAt fell back to the collection time

	Summary  string   `json:"summary"`
	Content  string   `json:"content,omitempty"`
	Tags     []string `json:"tags"`
	Keywords []string `json:"keywords"`

	SourceType  string `json:"source_type"`
	ContentType string `json:"content_type"`
	Strategy    string `json:"strategy"`

	ContentHash string    `json:"content_hash"`
	CollectedAt time.Time `json:"collected_at"`

	Scores Scores  `json:"scores"`
	Rank   float64 `json:"rank_score"`
	Notice bool    `json:"notice,omitempty"`
}

// New builds a draft article. PublishedAt starts at the collection time and is
// marked estimated until SetPublished receives a parsed date.
func New(title, url, source, category string, collectedAt time.Time) *Article {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)

	return &Article{
		Title:         title,
		URL:           url,
		Source:        source,
		Category:      category,
		PublishedAt:   collectedAt,
		DateEstimated: true,
		Tags:          []string{},
		Keywords:      []string{},
		ContentHash:   ContentHash(title, url),
		CollectedAt:   collectedAt,
	}
}

func (a *Article) SetPublished(t time.Time) {
	if t.IsZero() {
		return
	}
	a.PublishedAt = t
	a.DateEstimated = false
}

// Text returns title, summary and content joined for keyword matching.
func (a *Article) Text() string {
	return strings.Join([]string{a.Title, a.Summary, a.Content}, " ")
}

// VersionKey salts the content hash with the collection time, so a later run
// stores a new version instead of touching the historical row.
func (a *Article) VersionKey() string {
	return fmt.Sprintf("%s-%d", a.ContentHash, a.CollectedAt.UTC().Unix())
}

func (a *Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ContentHash is the in-run identity of an article: md5 of the lowercased
// title and url concatenation.
func ContentHash(title, url string) string {
	sum := md5.Sum([]byte(strings.ToLower(title + url)))
	return hex.EncodeToString(sum[:])
}
