package ranking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
)

const (
	defaultTier = 4
	crisisBoost = 0.3

	NoticeSource   = "Policy Radar"
	NoticeCategory = "System"
	noticeURL      = "about:system-notice"
)

type Tier struct {
	Level   int      `yaml:"level"`
	Markers []string `yaml:"markers"`
}

type Tables struct {
	Tiers          []Tier   `yaml:"tiers"`
	CrisisTag      string   `yaml:"crisis_tag"`
	CrisisKeywords []string `yaml:"crisis_keywords"`
}

func DefaultTables() Tables {
	return Tables{
		Tiers: []Tier{
			{Level: 1, Markers: []string{"pib", "meity", "rbi", "supreme court", "sebi", "ministry"}},
			{Level: 2, Markers: []string{"prs", "medianama", "livelaw", "bar and bench", "iff", "orf"}},
			{Level: 3, Markers: []string{"the hindu", "indian express", "economic times", "livemint", "business standard"}},
			{Level: 4, Markers: []string{"google news", "the wire", "scroll", "print"}},
		},
		CrisisTag:      "India-Pakistan Conflict",
		CrisisKeywords: []string{"pakistan", "indo-pak", "border", "attack", "ceasefire", "missile"},
	}
}

// Assembler orders accepted articles for presentation.
type Assembler struct {
	tables Tables
}

func NewAssembler(tables Tables) *Assembler {
	return &Assembler{
		tables: tables,
	}
}

// Rank sets each article's Rank and returns a new slice sorted by it,
// descending. Ties keep their input order.
func (r *Assembler) Rank(articles []*article.Article, now time.Time) []*article.Article {
	ranked := make([]*article.Article, len(articles))
	copy(ranked, articles)

	for _, a := range ranked {
		a.Rank = r.Score(a, now)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})

	return ranked
}

func (r *Assembler) Score(a *article.Article, now time.Time) float64 {
	importance := 0.4*a.Scores.PolicyRelevance + 0.3*a.Scores.SourceReliability + 0.3*a.Scores.SectorSpecificity
	timeliness := Timeliness(a.PublishedAt, a.DateEstimated, now)
	tierBonus := float64(5-r.Tier(a.Source)) / 4

	score := 0.6*importance + 0.3*timeliness + 0.1*tierBonus
	if r.IsCrisis(a) {
		score += crisisBoost
	}
	return score
}

// Tier returns the first tier whose marker appears in the source name.
func (r *Assembler) Tier(source string) int {
	name := strings.ToLower(source)
	for _, tier := range r.tables.Tiers {
		for _, marker := range tier.Markers {
			if strings.Contains(name, marker) {
				return tier.Level
			}
		}
	}
	return defaultTier
}

func (r *Assembler) IsCrisis(a *article.Article) bool {
	if r.tables.CrisisTag != "" && a.HasTag(r.tables.CrisisTag) {
		return true
	}

	text := strings.ToLower(a.Title + " " + a.Summary)
	for _, keyword := range r.tables.CrisisKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func Timeliness(published time.Time, estimated bool, now time.Time) float64 {
	if published.IsZero() || estimated {
		return 0.5
	}

	hours := max(0, now.Sub(published).Hours())
	switch {
	case hours <= 6:
		return 1.0
	case hours <= 24:
		return 0.8
	case hours <= 72:
		return 0.6
	case hours <= 168:
		return 0.4
	case hours <= 336:
		return 0.2
	default:
		return 0.1
	}
}

// SystemNotice stands in for the article list when nothing could be
// collected.
func SystemNotice(failed, abandoned, total int, now time.Time) *article.Article {
	a := article.New("Policy news is temporarily unavailable", noticeURL, NoticeSource, NoticeCategory, now)
	a.SetPublished(now)
	a.Summary = fmt.Sprintf("All %d sources failed in the latest run (%d failed, %d timed out). The next run will retry.", total, failed, abandoned)
	a.Tags = []string{"System Notice"}
	a.SourceType = "other"
	a.ContentType = "news"
	a.Notice = true
	return a
}
