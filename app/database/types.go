package database

import (
	"time"
)

// FeedHistory holds the cumulative outcome counters of one endpoint.
type FeedHistory struct {
	Endpoint      string     `json:"endpoint"`
	Source        string     `json:"source"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	LastErrorAt   *time.Time `json:"last_error_at,omitempty"`
	SuccessCount  int        `json:"success_count"`
	ErrorCount    int        `json:"error_count"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SourceRecord struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	Format      string    `json:"format"`
	Fallbacks   []string  `json:"fallbacks"`
	Reliability float64   `json:"reliability,omitempty"`
	Enabled     bool      `json:"enabled"`
	UpdatedAt   time.Time `json:"updated_at"`
}
