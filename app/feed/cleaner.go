package feed

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
	socialPattern = regexp.MustCompile(`(Follow|Like|Share on|View on) (Twitter|Facebook|LinkedIn|Instagram|YouTube).*`)
)

var defaultBoilerplate = []string{
	`(?i)For all the latest.*`,
	`(?i)Click here to read.*`,
	`(?i)Download the app.*`,
	`(?i)Subscribe to our newsletter.*`,
	`(?i)Read more at.*`,
	`(?i)Read the full story.*`,
	`(?i)This article first appeared.*`,
}

const strippedElements = "script, style, iframe, noscript, head, meta, link"

// Cleaner converts HTML fragments to plain text and strips boilerplate.
type Cleaner struct {
	boilerplate []*regexp.Regexp
}

func NewCleaner() *Cleaner {
	patterns := make([]*regexp.Regexp, 0, len(defaultBoilerplate)+1)
	patterns = append(patterns, socialPattern)
	for _, p := range defaultBoilerplate {
		patterns = append(patterns, regexp.MustCompile(p))
	}

	return &Cleaner{
		boilerplate: patterns,
	}
}

func (c *Cleaner) Text(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	if !strings.Contains(fragment, "<") {
		return c.Normalize(html.UnescapeString(fragment))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return c.Normalize(html.UnescapeString(tagPattern.ReplaceAllString(fragment, " ")))
	}

	doc.Find(strippedElements).Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &b)
	}

	return c.Normalize(b.String())
}

// Normalize applies NFKC, collapses whitespace and cuts boilerplate tails.
func (c *Cleaner) Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.Join(strings.Fields(text), " ")

	for _, pattern := range c.boilerplate {
		text = pattern.ReplaceAllString(text, "")
	}

	return strings.TrimSpace(text)
}

func collectText(n *nethtml.Node, b *strings.Builder) {
	if n.Type == nethtml.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}
