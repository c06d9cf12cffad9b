package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const MaxWorkerCount = 10

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

type rawCfg struct {
	// Storage and catalog
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/policy_radar.db" description:"SQLite database file"`
	SourcesDir  string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source catalog files"`
	LexiconFile string `long:"lexicon-file" env:"LEXICON_FILE" description:"Optional YAML file overriding the relevance lexicons"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://radar.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Pipeline
	WorkerCount      int      `long:"worker-count" env:"WORKER_COUNT" default:"6" description:"Number of concurrent source fetchers (max 10)"`
	RunInterval      int      `long:"run-interval" env:"RUN_INTERVAL" default:"3600" description:"Seconds between pipeline runs"`
	RunBudget        int      `long:"run-budget" env:"RUN_BUDGET" default:"300" description:"Wall-clock budget of the fetch phase in seconds"`
	RequestTimeout   int      `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Per-request timeout in seconds"`
	MaxAttempts      int      `long:"max-attempts" env:"MAX_ATTEMPTS" default:"3" description:"Fetch attempts per endpoint"`
	DedupWindowDays  int      `long:"dedup-window-days" env:"DEDUP_WINDOW_DAYS" default:"2" description:"Days of history checked for duplicates"`
	DisableDedup     bool     `long:"disable-dedup" env:"DISABLE_DEDUP" description:"Collect everything without deduplication"`
	RoutineThreshold float64  `long:"routine-threshold" env:"ROUTINE_THRESHOLD" default:"0.2" description:"Minimum overall score for routine articles"`
	CrisisThreshold  float64  `long:"crisis-threshold" env:"CRISIS_THRESHOLD" default:"0.1" description:"Minimum overall score for crisis articles"`
	UserAgents       []string `long:"user-agent" env:"USER_AGENTS" env-delim:"|" description:"User agent strings rotated across requests"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is
// non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func fromRaw(raw rawCfg) (*Cfg, error) {
	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", raw.WorkerCount)
	}
	if raw.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", raw.MaxAttempts)
	}
	if raw.RunInterval < 1 || raw.RunBudget < 1 || raw.RequestTimeout < 1 {
		return nil, fmt.Errorf("run interval, run budget and request timeout must be positive")
	}
	if raw.DedupWindowDays < 0 {
		return nil, fmt.Errorf("dedup window must not be negative, got %d", raw.DedupWindowDays)
	}

	userAgents := raw.UserAgents
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}

	return &Cfg{
		DBPath:           raw.DBPath,
		SourcesDir:       raw.SourcesDir,
		LexiconFile:      raw.LexiconFile,
		Port:             raw.Port,
		BaseUrl:          raw.BaseUrl,
		APIAccessKey:     raw.APIAccessKey,
		WorkerCount:      min(raw.WorkerCount, MaxWorkerCount),
		RunInterval:      time.Duration(raw.RunInterval) * time.Second,
		RunBudget:        time.Duration(raw.RunBudget) * time.Second,
		RequestTimeout:   time.Duration(raw.RequestTimeout) * time.Second,
		MaxAttempts:      raw.MaxAttempts,
		DedupWindowDays:  raw.DedupWindowDays,
		DedupEnabled:     !raw.DisableDedup,
		RoutineThreshold: raw.RoutineThreshold,
		CrisisThreshold:  raw.CrisisThreshold,
		UserAgents:       userAgents,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
