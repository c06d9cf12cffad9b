package relevance

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lysyi3m/policy-radar/app/article"
)

var wordPattern = regexp.MustCompile(`[a-z]{4,}`)

// Tags expects lowercased text.
func (e *Engine) Tags(text string) []string {
	tags := make([]string, 0, article.MaxTags)

	if e.isConflict(text) {
		tags = append(tags, e.conflictTag)
	}

	for _, rule := range e.tags {
		if len(tags) >= article.MaxTags {
			break
		}
		if rule.triggers.count(text) >= 2 || rule.strong.any(text) {
			tags = append(tags, rule.tag)
		}
	}

	if len(tags) == 0 {
		if e.developmentHint.any(text) {
			tags = append(tags, developmentTag)
		} else {
			tags = append(tags, fallbackTag)
		}
	}

	return tags
}

func (e *Engine) isConflict(text string) bool {
	if e.conflictTag == "" {
		return false
	}
	if e.conflictPhrases.any(text) {
		return true
	}
	return strings.Contains(text, "pakistan") && e.conflictContext.any(text)
}

// Keywords returns the most frequent words of four or more letters, ties
// broken by first appearance.
func (e *Engine) Keywords(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if e.stopwords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > article.MaxKeywords {
		order = order[:article.MaxKeywords]
	}
	if order == nil {
		return []string{}
	}
	return order
}

func (e *Engine) SourceType(source string) string {
	return classify(e.sourceTypes, strings.ToLower(source), DefaultSourceType)
}

func (e *Engine) ContentType(text string) string {
	return classify(e.contentTypes, strings.ToLower(text), DefaultContentType)
}

func classify(rules []typeMatcher, text, fallback string) string {
	for _, rule := range rules {
		if rule.markers.any(text) {
			return rule.label
		}
	}
	return fallback
}
