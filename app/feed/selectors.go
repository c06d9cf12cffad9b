package feed

// SiteSelector maps a domain or source-name fragment to candidate selectors.
type SiteSelector struct {
	Key      string `yaml:"key"`
	Selector string `yaml:"selector"`
}

func DefaultSiteSelectors() []SiteSelector {
	return []SiteSelector{
		{Key: "thehindu", Selector: ".story-card-33, .story-card"},
		{Key: "indianexpress", Selector: ".articles article, .ie-first-story, .article-block"},
		{Key: "livemint", Selector: ".cardHolder, .story-list, article"},
		{Key: "economictimes", Selector: ".eachStory, .story-card"},
		{Key: "business-standard", Selector: ".listing-page, .aticle-list"},
		{Key: "pib.gov.in", Selector: ".release-content, .content ul li"},
		{Key: "prsindia.org", Selector: ".view-content .views-row, .bill-listing-item"},
		{Key: "meity.gov.in", Selector: ".view-content .views-row"},
		{Key: "livelaw.in", Selector: "article, .story-list .media"},
		{Key: "medianama.com", Selector: "article, .post, .grid-post"},
	}
}

var genericSelectors = []string{
	"article, .post, .story-card, .news-item, .card",
	"div.story, div.news, div.article, section.story",
	"div:has(h2) a[href], div:has(h3) a[href]",
	".content a[href], .container a[href]",
}
