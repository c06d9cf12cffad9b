package feed

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/source"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run splits drafts into kept and filtered according to per-source rules.
func (f *Filterer) Run(items []*article.Article, filters []source.Filter) ([]*article.Article, int) {
	if len(filters) == 0 {
		return items, 0
	}

	kept := make([]*article.Article, 0, len(items))
	filtered := 0
	for _, item := range items {
		if isFiltered, _ := f.applyFilters(item, filters); isFiltered {
			filtered++
			continue
		}
		kept = append(kept, item)
	}

	return kept, filtered
}

func (f *Filterer) applyFilters(item *article.Article, filters []source.Filter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item *article.Article, field string) string {
	switch field {
	case "title":
		return item.Title
	case "summary":
		return item.Summary
	case "content":
		return item.Content
	case "link":
		return item.URL
	case "tags":
		return strings.Join(item.Tags, " ")
	default:
		return ""
	}
}
