package relevance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sector is a named policy area and the lexicon that identifies it.
type Sector struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ReliabilityEntry scores a source-name fragment on a 5-point scale.
type ReliabilityEntry struct {
	Key   string  `yaml:"key"`
	Score float64 `yaml:"score"`
}

type TagRule struct {
	Tag      string   `yaml:"tag"`
	Triggers []string `yaml:"triggers"`
}

// TypeRule labels an article when any marker appears. First matching rule wins.
type TypeRule struct {
	Type    string   `yaml:"type"`
	Markers []string `yaml:"markers"`
}

// Tables holds every lexicon the engine consults. A Tables value is treated
// as immutable once handed to NewEngine.
type Tables struct {
	HighKeywords   []string           `yaml:"high_keywords"`
	MediumKeywords []string           `yaml:"medium_keywords"`
	Sectors        []Sector           `yaml:"sectors"`
	Reliability    []ReliabilityEntry `yaml:"reliability"`

	CrisisKeywords      []string `yaml:"crisis_keywords"`
	CrisisTitleTriggers []string `yaml:"crisis_title_triggers"`
	CrisisFlags         []string `yaml:"crisis_flags"`

	ConflictTag     string   `yaml:"conflict_tag"`
	ConflictPhrases []string `yaml:"conflict_phrases"`
	ConflictContext []string `yaml:"conflict_context"`

	TagRules     []TagRule  `yaml:"tag_rules"`
	SourceTypes  []TypeRule `yaml:"source_types"`
	ContentTypes []TypeRule `yaml:"content_types"`
	Stopwords    []string   `yaml:"stopwords"`
}

const (
	defaultReliability = 0.5
	DefaultSourceType  = "other"
	DefaultContentType = "news"
	developmentTag     = "Policy Development"
	fallbackTag        = "Policy News"
)

func DefaultTables() Tables {
	return Tables{
		HighKeywords: []string{
			"policy", "regulation", "bill", "act", "law", "ministry", "government", "notification",
			"amendment", "cabinet", "parliament", "supreme court", "legislation", "regulatory",
			"compliance", "niti aayog", "rbi", "sebi", "trai", "circular", "ordinance", "statute",
			"directive", "mandate",
		},
		MediumKeywords: []string{
			"reform", "initiative", "program", "scheme", "mission", "project", "framework", "strategy",
			"roadmap", "guideline", "committee", "commission", "panel", "task force", "authority",
			"board", "council", "fund", "subsidy", "tax", "budget", "fiscal", "monetary",
			"development", "governance",
		},
		Sectors: []Sector{
			{Name: "Technology Policy", Keywords: []string{
				"technology", "digital", "it", "telecom", "telecommunications", "data", "privacy", "cyber",
				"cybersecurity", "internet", "ecommerce", "e-commerce", "social media", "ai",
				"artificial intelligence", "ml", "machine learning", "blockchain", "crypto",
				"cryptocurrency", "fintech", "startup", "innovation",
			}},
			{Name: "Economic Policy", Keywords: []string{
				"economy", "economic", "finance", "financial", "banking", "investment", "trade", "commerce",
				"business", "industry", "industrial", "manufacturing", "msme", "gdp", "inflation", "fiscal",
				"monetary", "budget", "tax", "taxation", "subsidy", "export", "import", "customs", "tariff",
				"rbi", "sebi", "market",
			}},
			{Name: "Healthcare Policy", Keywords: []string{
				"health", "healthcare", "medical", "medicine", "hospital", "doctor", "patient", "disease",
				"vaccination", "vaccine", "pandemic", "epidemic", "pharma", "pharmaceutical", "insurance",
				"ayushman", "nhm", "drug", "ayush", "wellness",
			}},
			{Name: "Environmental Policy", Keywords: []string{
				"environment", "environmental", "climate", "climate change", "pollution", "sustainable",
				"sustainability", "green", "renewable", "solar", "wind", "emission", "carbon", "forest",
				"wildlife", "biodiversity", "water", "conservation", "waste", "ecology", "ecological",
				"clean energy",
			}},
			{Name: "Education Policy", Keywords: []string{
				"education", "educational", "school", "college", "university", "academic", "student",
				"teacher", "teaching", "learning", "pedagogy", "curriculum", "nep", "skill", "scholarship",
				"ugc", "aicte", "research", "literacy",
			}},
			{Name: "Agricultural Policy", Keywords: []string{
				"agriculture", "agricultural", "farmer", "farming", "crop", "msp", "rural", "irrigation",
				"fertilizer", "pesticide", "seed", "food", "security", "fci", "organic", "horticulture",
				"livestock",
			}},
			{Name: "Foreign Policy", Keywords: []string{
				"foreign", "diplomatic", "diplomacy", "international", "bilateral", "multilateral", "global",
				"regional", "treaty", "pact", "agreement", "cooperation", "relation", "embassy",
				"ambassador", "consul", "visa", "border", "territory", "dispute", "un", "united nations",
			}},
			{Name: "Constitutional & Legal", Keywords: []string{
				"constitution", "constitutional", "judiciary", "judicial", "court", "supreme court",
				"high court", "judge", "justice", "legal", "law", "legislation", "amendment", "right",
				"fundamental", "directive", "principle", "verdict", "judgment", "statute", "writ",
				"petition",
			}},
			{Name: "Defense & Security", Keywords: []string{
				"defense", "defence", "security", "military", "army", "navy", "air force", "strategic",
				"weapon", "warfare", "terrorist", "terrorism", "intelligence", "border", "sovereignty",
				"territorial", "nuclear", "missile", "warfare", "war", "conflict", "pakistan", "indo-pak",
				"loc", "line of control", "strike", "ceasefire", "combat", "hostilities",
			}},
			{Name: "Social Policy", Keywords: []string{
				"social", "welfare", "scheme", "poverty", "employment", "unemployment", "labor", "labour",
				"worker", "pension", "retirement", "gender", "women", "child", "minority",
				"scheduled caste", "scheduled tribe", "obc", "backward", "disability", "senior", "elderly",
				"housing", "urban",
			}},
			{Name: "Governance & Administration", Keywords: []string{
				"governance", "administration", "bureaucracy", "civil service", "reform", "transparency",
				"accountability", "corruption", "ethics", "electoral", "election", "e-governance", "local",
				"municipal", "panchayat", "state government", "centre-state", "federalism",
			}},
		},
		Reliability: []ReliabilityEntry{
			{"Press Information Bureau", 5}, {"PIB", 5}, {"RBI", 5}, {"Reserve Bank of India", 5},
			{"Supreme Court of India", 5}, {"Ministry of", 5}, {"Department of", 5}, {"TRAI", 5},
			{"SEBI", 5}, {"Gazette of India", 5}, {"Lok Sabha", 5}, {"Rajya Sabha", 5},
			{"Niti Aayog", 5},

			{"PRS Legislative Research", 4.5}, {"Observer Research Foundation", 4.5}, {"ORF", 4.5},
			{"Centre for Policy Research", 4.5}, {"CPR India", 4.5}, {"Takshashila Institution", 4.5},
			{"IDFC Institute", 4.5}, {"Carnegie India", 4.5}, {"Gateway House", 4.5},
			{"LiveLaw", 4.5}, {"Bar and Bench", 4.5}, {"SCC Online", 4.5},

			{"The Hindu", 4}, {"The Indian Express", 4}, {"Mint", 4}, {"LiveMint", 4},
			{"Business Standard", 4}, {"Economic Times", 4}, {"Financial Express", 4},
			{"Hindu Business Line", 4}, {"The Print", 4}, {"The Wire", 4}, {"Scroll.in", 4},
			{"Down To Earth", 4}, {"MediaNama", 4},

			{"Times of India", 3.5}, {"NDTV", 3.5}, {"India Today", 3.5}, {"Hindustan Times", 3.5},
			{"News18", 3.5}, {"The News Minute", 3.5}, {"FirstPost", 3.5},

			{"Google News", 3},
		},
		CrisisKeywords: []string{
			"war", "conflict", "hostilities", "military", "troops", "border", "ceasefire", "pakistan",
			"indo-pak", "india-pakistan", "loc", "line of control", "air strike", "artillery", "missile",
			"security threat", "defense alert", "diplomatic crisis", "evacuation", "military action",
			"casualties", "combat", "airspace violation", "territorial", "sovereignty",
			"national security", "emergency", "terror", "attack",
		},
		CrisisTitleTriggers: []string{"war", "attack", "emergency", "missile", "strike", "casualties", "pakistan"},
		CrisisFlags:         []string{"pakistan", "indo-pak", "india-pakistan", "loc", "border", "attack", "ceasefire", "missile"},
		ConflictTag:         "India-Pakistan Conflict",
		ConflictPhrases: []string{
			"operation sindoor", "india-pakistan", "indo-pak", "pakistan conflict", "pakistan tension",
			"pakistan ceasefire", "pakistan border", "pakistan military", "pakistan war",
		},
		ConflictContext: []string{
			"border", "military", "attack", "conflict", "tension", "war", "ceasefire", "diplomatic",
			"security", "threat", "defense",
		},
		TagRules: []TagRule{
			{Tag: "Policy Analysis", Triggers: []string{
				"analysis", "study", "report", "research", "survey", "findings", "data analysis",
				"impact assessment", "evaluation", "review", "suggests", "concludes", "recommends",
				"proposes", "examines",
			}},
			{Tag: "Legislative Updates", Triggers: []string{
				"bill", "act", "parliament", "amendment", "legislation", "rajya sabha", "lok sabha",
				"ordinance", "draft bill", "passed", "enacted", "introduced", "tabled", "clause",
			}},
			{Tag: "Regulatory Changes", Triggers: []string{
				"regulation", "rules", "guidelines", "notification", "circular", "compliance",
				"enforcement", "regulatory", "mandate", "framework", "mandatory", "requirement",
				"standards",
			}},
			{Tag: "Court Rulings", Triggers: []string{
				"court", "supreme", "judicial", "judgment", "verdict", "tribunal", "hearing", "petition",
				"bench", "justice", "order", "legal", "lawsuit", "litigation", "plea", "challenge", "writ",
			}},
			{Tag: "Government Initiatives", Triggers: []string{
				"scheme", "program", "initiative", "launch", "implementation", "project", "mission",
				"flagship", "campaign", "yojana", "announced", "inaugurated", "ministry", "minister",
				"government",
			}},
			{Tag: "Policy Debate", Triggers: []string{
				"debate", "discussion", "consultation", "feedback", "opinion", "perspective",
				"stakeholder", "controversy", "criticism", "concerns", "opposing", "views", "discourse",
				"deliberation",
			}},
			{Tag: "International Relations", Triggers: []string{
				"bilateral", "diplomatic", "foreign", "international", "global", "relation",
				"cooperation", "treaty", "agreement", "pact", "partnership", "strategic", "dialogue",
				"summit", "delegation",
			}},
			{Tag: "Digital Governance", Triggers: []string{
				"digital", "online", "internet", "tech", "platform", "data", "privacy", "cyber",
				"algorithm", "ai", "artificial intelligence", "electronic", "e-governance",
				"surveillance", "security",
			}},
			{Tag: "Economic Measures", Triggers: []string{
				"budget", "fiscal", "monetary", "tax", "economy", "financial", "gdp", "investment",
				"subsidy", "stimulus", "deficit", "reform", "revenue", "trade", "commerce", "industry",
			}},
			{Tag: "Public Consultation", Triggers: []string{
				"consultation", "public input", "feedback", "draft", "comments", "review", "suggestions",
				"stakeholder", "participation", "discussion paper", "white paper", "deliberation",
			}},
			{Tag: "Policy Implementation", Triggers: []string{
				"implementation", "rollout", "enforcement", "execution", "compliance", "timeline",
				"deadline", "phase", "effective from", "operational",
			}},
		},
		SourceTypes: []TypeRule{
			{Type: "government", Markers: []string{"ministry", "government", "pib", "rbi", "sebi", "trai", "gazette", "niti aayog"}},
			{Type: "legal", Markers: []string{"court", "judiciary", "livelaw", "bar and bench"}},
			{Type: "think_tank", Markers: []string{"research", "institute", "foundation", "orf", "cpr", "takshashila"}},
			{Type: "academic", Markers: []string{"university", "college", "academic"}},
			{Type: "business", Markers: []string{"business", "economic", "financial", "economy"}},
			{Type: "news_media", Markers: []string{"times", "express", "hindu", "mint", "ndtv", "news"}},
		},
		ContentTypes: []TypeRule{
			{Type: "analysis", Markers: []string{"analysis", "opinion", "perspective", "view", "column"}},
			{Type: "notification", Markers: []string{"notification", "circular", "order", "notice"}},
			{Type: "legal", Markers: []string{"judgment", "verdict", "ruling", "order", "case"}},
			{Type: "legislation", Markers: []string{"bill", "legislation", "parliament", "amendment", "act"}},
			{Type: "policy", Markers: []string{"policy", "regulation", "regulatory", "framework", "guidelines"}},
			{Type: "report", Markers: []string{"report", "study", "survey", "research", "findings"}},
		},
		Stopwords: []string{
			"a", "an", "the", "and", "or", "but", "if", "because", "as", "what", "which", "this", "that",
			"these", "those", "then", "just", "so", "than", "such", "both", "through", "about", "for",
			"is", "of", "while", "during", "to", "from", "in", "on", "at", "by", "with", "against",
			"between", "into", "after", "before", "above", "below", "up", "down", "out", "have", "they",
			"will", "been",
		},
	}
}

// LoadTables reads a YAML lexicon file over the defaults. Only lists present
// in the file replace their default counterparts.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}

	var overlay Tables
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return tables, fmt.Errorf("failed to parse lexicon file %s: %w", path, err)
	}

	tables.merge(overlay)
	return tables, nil
}

func (t *Tables) merge(o Tables) {
	replace(&t.HighKeywords, o.HighKeywords)
	replace(&t.MediumKeywords, o.MediumKeywords)
	replace(&t.Sectors, o.Sectors)
	replace(&t.Reliability, o.Reliability)
	replace(&t.CrisisKeywords, o.CrisisKeywords)
	replace(&t.CrisisTitleTriggers, o.CrisisTitleTriggers)
	replace(&t.CrisisFlags, o.CrisisFlags)
	replace(&t.ConflictPhrases, o.ConflictPhrases)
	replace(&t.ConflictContext, o.ConflictContext)
	replace(&t.TagRules, o.TagRules)
	replace(&t.SourceTypes, o.SourceTypes)
	replace(&t.ContentTypes, o.ContentTypes)
	replace(&t.Stopwords, o.Stopwords)
	if o.ConflictTag != "" {
		t.ConflictTag = o.ConflictTag
	}
}

func replace[T any](dst *[]T, src []T) {
	if len(src) > 0 {
		*dst = src
	}
}
