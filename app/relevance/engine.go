package relevance

import (
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
)

const (
	DefaultRoutineThreshold = 0.2
	DefaultCrisisThreshold  = 0.1

	sectorOverrideScore = 0.3
	crisisKeywordWeight = 0.15
	crisisTitleBonus    = 0.5
)

type Options struct {
	Weights          article.Weights
	RoutineThreshold float64
	CrisisThreshold  float64
	// Reliability maps source names to catalog overrides on the 5-point scale.
	Reliability map[string]float64
}

func DefaultOptions() Options {
	return Options{
		Weights:          article.DefaultWeights(),
		RoutineThreshold: DefaultRoutineThreshold,
		CrisisThreshold:  DefaultCrisisThreshold,
	}
}

type sectorLexicon struct {
	name  string
	terms lexicon
}

type reliabilityKey struct {
	key   string
	score float64
}

type tagMatcher struct {
	tag      string
	triggers lexicon
	strong   lexicon
}

type typeMatcher struct {
	label   string
	markers lexicon
}

// Engine scores and classifies draft articles. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	high, medium lexicon
	sectors      []sectorLexicon
	reliability  []reliabilityKey
	overrides    map[string]float64

	crisis, titleTriggers, crisisFlags lexicon

	conflictTag     string
	conflictPhrases lexicon
	conflictContext lexicon
	tags            []tagMatcher
	developmentHint lexicon

	sourceTypes  []typeMatcher
	contentTypes []typeMatcher
	stopwords    map[string]bool

	weights          article.Weights
	routineThreshold float64
	crisisThreshold  float64
}

func NewEngine(tables Tables, opts Options) (*Engine, error) {
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	if opts.RoutineThreshold < 0 || opts.RoutineThreshold > 1 || opts.CrisisThreshold < 0 || opts.CrisisThreshold > 1 {
		return nil, fmt.Errorf("thresholds must be within [0, 1]")
	}

	e := &Engine{
		high:             newLexicon(tables.HighKeywords),
		medium:           newLexicon(tables.MediumKeywords),
		crisis:           newLexicon(tables.CrisisKeywords),
		titleTriggers:    newLexicon(tables.CrisisTitleTriggers),
		crisisFlags:      newLexicon(tables.CrisisFlags),
		conflictTag:      tables.ConflictTag,
		conflictPhrases:  newLexicon(tables.ConflictPhrases),
		conflictContext:  newLexicon(tables.ConflictContext),
		developmentHint:  newLexicon([]string{"policy", "government", "ministry", "official"}),
		overrides:        make(map[string]float64, len(opts.Reliability)),
		stopwords:        make(map[string]bool, len(tables.Stopwords)),
		weights:          opts.Weights,
		routineThreshold: opts.RoutineThreshold,
		crisisThreshold:  opts.CrisisThreshold,
	}

	for _, s := range tables.Sectors {
		if len(s.Keywords) == 0 {
			continue
		}
		e.sectors = append(e.sectors, sectorLexicon{name: s.Name, terms: newLexicon(s.Keywords)})
	}

	for _, r := range tables.Reliability {
		e.reliability = append(e.reliability, reliabilityKey{key: strings.ToLower(r.Key), score: r.Score})
	}

	for name, score := range opts.Reliability {
		if score > 0 {
			e.overrides[strings.ToLower(strings.TrimSpace(name))] = score
		}
	}

	for _, rule := range tables.TagRules {
		m := tagMatcher{tag: rule.Tag, triggers: newLexicon(rule.Triggers)}
		for _, trigger := range rule.Triggers[:min(5, len(rule.Triggers))] {
			m.strong = append(m.strong, newTerm(trigger, true))
		}
		e.tags = append(e.tags, m)
	}

	for _, rule := range tables.SourceTypes {
		e.sourceTypes = append(e.sourceTypes, typeMatcher{label: rule.Type, markers: newLexicon(rule.Markers)})
	}
	for _, rule := range tables.ContentTypes {
		e.contentTypes = append(e.contentTypes, typeMatcher{label: rule.Type, markers: newLexicon(rule.Markers)})
	}

	for _, w := range tables.Stopwords {
		e.stopwords[strings.ToLower(w)] = true
	}

	return e, nil
}

// Score fills in the article's scores, tags, keywords and type labels, may
// move it to a better-matching sector category, and reports whether it
// clears the acceptance threshold.
func (e *Engine) Score(a *article.Article, now time.Time) bool {
	text := strings.ToLower(a.Text())
	title := strings.ToLower(a.Title)

	sector, sectorName := e.SectorSpecificity(text)
	if sector > sectorOverrideScore && sectorName != a.Category {
		a.Category = sectorName
	}

	a.Scores = article.Scores{
		PolicyRelevance:   e.PolicyRelevance(text),
		SourceReliability: e.SourceReliability(a.Source),
		Recency:           Recency(a.PublishedAt, a.DateEstimated, now),
		SectorSpecificity: sector,
		CrisisRelevance:   e.CrisisRelevance(text, title),
	}
	a.Scores.Recompute(e.weights)

	a.Tags = e.Tags(text)
	a.Keywords = e.Keywords(a.Text())
	a.SourceType = e.SourceType(a.Source)
	a.ContentType = e.ContentType(a.Title + " " + a.Summary)

	return a.Scores.Overall >= e.Threshold(a)
}

// Threshold is lower for crisis content so that sparse breaking reports are
// not dropped.
func (e *Engine) Threshold(a *article.Article) float64 {
	if e.IsCrisis(a) {
		return e.crisisThreshold
	}
	return e.routineThreshold
}

func (e *Engine) IsCrisis(a *article.Article) bool {
	if e.conflictTag != "" && a.HasTag(e.conflictTag) {
		return true
	}
	return e.crisisFlags.any(strings.ToLower(a.Title + " " + a.Summary))
}

func (e *Engine) PolicyRelevance(text string) float64 {
	high := min(0.7, 0.1*float64(e.high.count(text)))
	medium := min(0.3, 0.05*float64(e.medium.count(text)))
	return article.Clamp(high + medium)
}

// SourceReliability prefers a catalog override for the exact source name,
// then the longest table key contained in the name.
func (e *Engine) SourceReliability(source string) float64 {
	name := strings.ToLower(strings.TrimSpace(source))
	if score, ok := e.overrides[name]; ok {
		return article.Clamp(score / 5)
	}

	best := -1
	for i, r := range e.reliability {
		if r.key == "" || !strings.Contains(name, r.key) {
			continue
		}
		if best < 0 || len(r.key) > len(e.reliability[best].key) {
			best = i
		}
	}

	if best < 0 {
		return defaultReliability
	}
	return article.Clamp(e.reliability[best].score / 5)
}

// Recency buckets the age of an article. Boundaries are inclusive and future
// timestamps count as brand new.
func Recency(published time.Time, estimated bool, now time.Time) float64 {
	if published.IsZero() || estimated {
		return 0.5
	}

	hours := max(0, now.Sub(published).Hours())
	switch {
	case hours <= 24:
		return 1.0
	case hours <= 72:
		return 0.8
	case hours <= 168:
		return 0.6
	case hours <= 336:
		return 0.4
	case hours <= 720:
		return 0.2
	default:
		return 0.1
	}
}

// SectorSpecificity returns the best sector score and its name. Ties keep
// the earlier sector.
func (e *Engine) SectorSpecificity(text string) (float64, string) {
	best, name := 0.0, ""
	for _, s := range e.sectors {
		score := min(1, 2*float64(s.terms.count(text))/float64(len(s.terms)))
		if score > best {
			best, name = score, s.name
		}
	}
	return best, name
}

func (e *Engine) CrisisRelevance(text, title string) float64 {
	score := crisisKeywordWeight * float64(e.crisis.count(text))
	if e.titleTriggers.any(title) {
		score += crisisTitleBonus
	}
	return article.Clamp(score)
}
