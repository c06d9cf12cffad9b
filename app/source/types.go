package source

type Format string

const (
	FormatAuto Format = "auto"
	FormatFeed Format = "feed"
	FormatHTML Format = "html"
)

type Source struct {
	Name           string   `yaml:"name" json:"name"`
	URL            string   `yaml:"url" json:"url"`
	Category       string   `yaml:"category" json:"category"`
	Fallbacks      []string `yaml:"fallbacks" json:"fallbacks,omitempty"`
	Format         Format   `yaml:"format" json:"format"`
	Selectors      []string `yaml:"selectors" json:"selectors,omitempty"`
	ExtractContent bool     `yaml:"extract_content" json:"extract_content"`
	MaxItems       int      `yaml:"max_items" json:"max_items,omitempty"`
	Reliability    float64  `yaml:"reliability" json:"reliability,omitempty"` // 5-point scale, 0 means use the table
	Enabled        *bool    `yaml:"enabled" json:"enabled,omitempty"`
	Filters        []Filter `yaml:"filters" json:"filters,omitempty"`
}

type Filter struct {
	Field    string   `yaml:"field" json:"field"`
	Includes []string `yaml:"includes" json:"includes,omitempty"`
	Excludes []string `yaml:"excludes" json:"excludes,omitempty"`
}

func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Endpoints returns the primary endpoint followed by the fallbacks, skipping
// blanks and repeats.
func (s Source) Endpoints() []string {
	seen := make(map[string]bool)
	endpoints := make([]string, 0, 1+len(s.Fallbacks))

	for _, endpoint := range append([]string{s.URL}, s.Fallbacks...) {
		if endpoint == "" || seen[endpoint] {
			continue
		}
		seen[endpoint] = true
		endpoints = append(endpoints, endpoint)
	}

	return endpoints
}

type catalogFile struct {
	Sources []Source `yaml:"sources"`
}
