package relevance

import (
	"regexp"
	"strings"
)

// Terms of up to three letters ("it", "ai", "act") match as whole words;
// longer terms match as substrings.
const shortTermLength = 3

type term struct {
	text string
	word *regexp.Regexp
}

func newTerm(s string, wholeWord bool) term {
	s = strings.ToLower(strings.TrimSpace(s))
	t := term{text: s}
	if wholeWord || len(s) <= shortTermLength {
		t.word = regexp.MustCompile(`\b` + regexp.QuoteMeta(s) + `\b`)
	}
	return t
}

// in expects lowercased text.
func (t term) in(text string) bool {
	if t.text == "" {
		return false
	}
	if t.word != nil {
		return t.word.MatchString(text)
	}
	return strings.Contains(text, t.text)
}

type lexicon []term

func newLexicon(words []string) lexicon {
	l := make(lexicon, 0, len(words))
	for _, w := range words {
		l = append(l, newTerm(w, false))
	}
	return l
}

func (l lexicon) count(text string) int {
	n := 0
	for _, t := range l {
		if t.in(text) {
			n++
		}
	}
	return n
}

func (l lexicon) any(text string) bool {
	for _, t := range l {
		if t.in(text) {
			return true
		}
	}
	return false
}
