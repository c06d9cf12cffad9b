package source

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var validFilterFields = map[string]bool{
	"title":   true,
	"summary": true,
	"content": true,
	"link":    true,
	"tags":    true,
}

type Catalog struct {
	sourcesDir string
	sources    []Source
	mu         sync.RWMutex
}

func NewCatalog(sourcesDir string) *Catalog {
	return &Catalog{
		sourcesDir: sourcesDir,
	}
}

// Run (re)loads every *.yml and *.yaml file in the sources directory. Files are
// read in lexical order and entries keep their order inside a file. Invalid
// entries are skipped with a warning.
func (c *Catalog) Run() error {
	if _, err := os.Stat(c.sourcesDir); os.IsNotExist(err) {
		slog.Warn("Sources directory not found", "dir", c.sourcesDir)
		return nil
	}

	files, err := c.findFiles()
	if err != nil {
		return err
	}

	var sources []Source
	names := make(map[string]bool)

	for _, file := range files {
		entries, err := c.parseFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		for i, entry := range entries {
			entry = normalize(entry)

			if err := Validate(entry); err != nil {
				slog.Warn("Skipping invalid source", "file", filepath.Base(file), "index", i, "name", entry.Name, "error", err)
				continue
			}

			if names[entry.Name] {
				slog.Warn("Skipping duplicate source", "file", filepath.Base(file), "name", entry.Name)
				continue
			}
			names[entry.Name] = true

			sources = append(sources, entry)
		}

		slog.Debug("Source file loaded", "file", filepath.Base(file), "entries", len(entries))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = sources

	return nil
}

func (c *Catalog) Get(name string) (*Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.sources {
		if c.sources[i].Name == name {
			s := c.sources[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("source with name '%s' not found", name)
}

func (c *Catalog) Sources() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sourcesCopy := make([]Source, len(c.sources))
	copy(sourcesCopy, c.sources)
	return sourcesCopy
}

func (c *Catalog) Enabled() []Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enabled := make([]Source, 0, len(c.sources))
	for _, s := range c.sources {
		if s.IsEnabled() {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

func (c *Catalog) findFiles() ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(c.sourcesDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find YML files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func (c *Catalog) parseFile(file string) ([]Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var parsed catalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return parsed.Sources, nil
}

func normalize(s Source) Source {
	s.Name = strings.TrimSpace(s.Name)
	s.URL = strings.TrimSpace(s.URL)
	s.Category = strings.TrimSpace(s.Category)
	if s.Format == "" {
		s.Format = FormatAuto
	}
	for i := range s.Fallbacks {
		s.Fallbacks[i] = strings.TrimSpace(s.Fallbacks[i])
	}
	return s
}

// Validate reports why a source cannot be dispatched.
func Validate(s Source) error {
	requiredFields := map[string]string{
		"name":     s.Name,
		"url":      s.URL,
		"category": s.Category,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	for _, endpoint := range s.Endpoints() {
		if err := validateEndpoint(endpoint); err != nil {
			return err
		}
	}

	switch s.Format {
	case "", FormatAuto, FormatFeed, FormatHTML:
	default:
		return fmt.Errorf("invalid format: %s", s.Format)
	}

	if s.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}
	if s.Reliability < 0 || s.Reliability > 5 {
		return fmt.Errorf("reliability must be between 0 and 5")
	}

	for i, filter := range s.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must use http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return nil
}
