package cfg

import "time"

type Cfg struct {
	// Storage and catalog
	DBPath      string
	SourcesDir  string
	LexiconFile string

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Pipeline
	WorkerCount      int
	RunInterval      time.Duration
	RunBudget        time.Duration
	RequestTimeout   time.Duration
	MaxAttempts      int
	DedupWindowDays  int
	DedupEnabled     bool
	RoutineThreshold float64
	CrisisThreshold  float64
	UserAgents       []string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// DedupWindow is the cross-run lookback of the deduplication gate.
func (c *Cfg) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowDays) * 24 * time.Hour
}
