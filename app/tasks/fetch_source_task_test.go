package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/policy-radar/app/article"
	"github.com/lysyi3m/policy-radar/app/database"
	"github.com/lysyi3m/policy-radar/app/dedup"
	"github.com/lysyi3m/policy-radar/app/feed"
	"github.com/lysyi3m/policy-radar/app/relevance"
	"github.com/lysyi3m/policy-radar/app/source"
)

const policyFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Press releases</title>
    <link>https://pib.gov.in</link>
    <item>
      <title>Cabinet approves data protection rules</title>
      <link>https://pib.gov.in/release/1</link>
      <description>The ministry notified the rules under the IT Act.</description>
    </item>
    <item>
      <title>Entry without a link</title>
      <description>Should be skipped</description>
    </item>
    <item>
      <title>SEBI issues circular on mutual fund regulation</title>
      <link>https://pib.gov.in/release/3</link>
      <description>The regulator amended the policy framework for fund houses.</description>
    </item>
  </channel>
</rss>`

const emptyPage = `<html><body><p>Nothing here</p></body></html>`

type outcome struct {
	source   string
	endpoint string
	success  bool
	errMsg   string
}

// MockFeedHistoryRepository records outcomes in memory.
type MockFeedHistoryRepository struct {
	mu       sync.Mutex
	outcomes []outcome
}

var _ database.FeedHistoryRepository = (*MockFeedHistoryRepository)(nil)

func (m *MockFeedHistoryRepository) RecordFeedOutcome(ctx context.Context, sourceName, endpoint string, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome{sourceName, endpoint, success, errMsg})
	return nil
}

func (m *MockFeedHistoryRepository) List(ctx context.Context) ([]database.FeedHistory, error) {
	return nil, nil
}

func (m *MockFeedHistoryRepository) recorded() []outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]outcome(nil), m.outcomes...)
}

// MockHistoryStore reports URLs as recently stored.
type MockHistoryStore struct {
	urls map[string]bool
}

var _ dedup.HistoryStore = (*MockHistoryStore)(nil)

func (m *MockHistoryStore) HashExists(ctx context.Context, hash string) (bool, error) {
	return false, nil
}

func (m *MockHistoryStore) FindByURLSince(ctx context.Context, url string, since time.Time) (bool, error) {
	return m.urls[url], nil
}

func (m *MockHistoryStore) TitlesSince(ctx context.Context, since time.Time) ([]string, error) {
	return nil, nil
}

func newTestPipeline(t *testing.T, client *http.Client, store dedup.HistoryStore) (*Pipeline, *MockFeedHistoryRepository) {
	t.Helper()

	engine, err := relevance.NewEngine(relevance.DefaultTables(), relevance.DefaultOptions())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	cleaner := feed.NewCleaner()
	history := &MockFeedHistoryRepository{}

	return &Pipeline{
		Fetcher:     NewFetcher(client, []string{"agent-a", "agent-b"}, 5*time.Second),
		Extractor:   feed.NewDefaultExtractor(cleaner, feed.NewDateParser()),
		Filterer:    feed.NewFilterer(),
		Content:     feed.NewContentExtractor(cleaner),
		Engine:      engine,
		Gate:        dedup.NewGate(store, dedup.DefaultOptions()),
		History:     history,
		MaxAttempts: 3,
		RetryBase:   time.Millisecond,
		MaxJitter:   0,
	}, history
}

func pibSource(url string, fallbacks ...string) source.Source {
	return source.Source{
		Name:      "PIB",
		URL:       url,
		Category:  "Governance & Administration",
		Fallbacks: fallbacks,
		Format:    source.FormatAuto,
	}
}

func serveFeed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(policyFeed))
}

func TestFetchSourceTask_PrimarySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveFeed(w)
	}))
	defer server.Close()

	pipeline, history := newTestPipeline(t, server.Client(), nil)
	task := NewFetchSourceTask(pibSource(server.URL+"/rss"), pipeline)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if result.Health.Status != StatusSuccess || result.Health.Method != MethodPrimary {
		t.Errorf("Expected success via primary, got %+v", result.Health)
	}
	if result.Health.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", result.Health.Attempts)
	}
	if len(result.Accepted) != 2 || result.Health.ArticleCount != 2 {
		t.Fatalf("Expected 2 accepted articles, got %d", len(result.Accepted))
	}
	for _, a := range result.Accepted {
		if a.Strategy != "structured" {
			t.Errorf("Expected structured strategy, got %q", a.Strategy)
		}
		if a.Scores.Overall == 0 || a.SourceType != "government" {
			t.Errorf("Expected scored article, got %+v", a.Scores)
		}
	}

	outcomes := history.recorded()
	if len(outcomes) != 1 || !outcomes[0].success || outcomes[0].source != "PIB" {
		t.Errorf("Expected one successful outcome, got %+v", outcomes)
	}
}

func TestFetchSourceTask_FallbackAfterPrimaryFails(t *testing.T) {
	var primaryHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/primary" {
			primaryHits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		serveFeed(w)
	}))
	defer server.Close()

	pipeline, history := newTestPipeline(t, server.Client(), nil)
	task := NewFetchSourceTask(pibSource(server.URL+"/primary", server.URL+"/fallback"), pipeline)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if result.Health.Status != StatusSuccess || result.Health.Method != MethodFallback {
		t.Errorf("Expected success via fallback, got %+v", result.Health)
	}
	if result.Health.Endpoint != server.URL+"/fallback" {
		t.Errorf("Expected fallback endpoint, got %s", result.Health.Endpoint)
	}
	if primaryHits.Load() != 3 {
		t.Errorf("Expected 3 attempts at the primary, got %d", primaryHits.Load())
	}
	if result.Health.Attempts != 4 {
		t.Errorf("Expected 4 attempts in total, got %d", result.Health.Attempts)
	}

	outcomes := history.recorded()
	if len(outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].success || outcomes[0].errMsg != "HTTP error: 503 Service Unavailable" {
		t.Errorf("Unexpected primary outcome %+v", outcomes[0])
	}
	if !outcomes[1].success {
		t.Errorf("Expected fallback success, got %+v", outcomes[1])
	}
}

func TestFetchSourceTask_RejectionRotatesIdentity(t *testing.T) {
	var agents []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()

		if r.Header.Get("Referer") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		serveFeed(w)
	}))
	defer server.Close()

	pipeline, _ := newTestPipeline(t, server.Client(), nil)
	// Backoff would stall the test if the rejection were not retried immediately
	pipeline.RetryBase = time.Hour
	task := NewFetchSourceTask(pibSource(server.URL), pipeline)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if result.Health.Status != StatusSuccess || result.Health.Attempts != 2 {
		t.Errorf("Expected success on the second attempt, got %+v", result.Health)
	}
	if len(agents) != 2 || agents[0] == agents[1] {
		t.Errorf("Expected a different user agent after rejection, got %v", agents)
	}
}

func TestFetchSourceTask_NonRetryableStatus(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	pipeline, history := newTestPipeline(t, server.Client(), nil)
	task := NewFetchSourceTask(pibSource(server.URL+"/a", server.URL+"/b"), pipeline)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected failure to be recorded, not returned: %v", err)
	}

	result := task.Result()
	if result.Health.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", result.Health.Status)
	}
	if hits.Load() != 2 || result.Health.Attempts != 2 {
		t.Errorf("Expected one attempt per endpoint, got %d hits / %d attempts", hits.Load(), result.Health.Attempts)
	}
	if result.Health.LastError != "HTTP error: 404 Not Found" {
		t.Errorf("Unexpected last error %q", result.Health.LastError)
	}
	if len(history.recorded()) != 2 {
		t.Errorf("Expected an outcome per endpoint, got %d", len(history.recorded()))
	}
}

func TestFetchSourceTask_EmptyExtractionIsRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(emptyPage))
	}))
	defer server.Close()

	pipeline, _ := newTestPipeline(t, server.Client(), nil)
	task := NewFetchSourceTask(pibSource(server.URL), pipeline)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if result.Health.Status != StatusFailed {
		t.Errorf("Expected failed status, got %s", result.Health.Status)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", hits.Load())
	}
	if result.Health.LastError != feed.ErrNoItems.Error() {
		t.Errorf("Expected %q, got %q", feed.ErrNoItems.Error(), result.Health.LastError)
	}
}

func TestFetchSourceTask_RequestTimeoutIsRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		serveFeed(w)
	}))
	defer server.Close()

	pipeline, history := newTestPipeline(t, server.Client(), nil)
	pipeline.Fetcher = NewFetcher(server.Client(), []string{"agent-a"}, 100*time.Millisecond)
	task := NewFetchSourceTask(pibSource(server.URL), pipeline)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if result.Health.Status != StatusSuccess || result.Health.Method != MethodPrimary {
		t.Errorf("Expected success via primary after a timeout, got %+v", result.Health)
	}
	if result.Health.Attempts != 2 || hits.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d (%d requests)", result.Health.Attempts, hits.Load())
	}
	if len(history.recorded()) != 1 || !history.recorded()[0].success {
		t.Errorf("Expected one successful outcome, got %+v", history.recorded())
	}
}

func TestFetchSourceTask_SeenHashRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveFeed(w)
	}))
	defer server.Close()

	pipeline, _ := newTestPipeline(t, server.Client(), nil)

	seen := article.New("Cabinet approves data protection rules", "https://pib.gov.in/release/1", "PIB", "Governance & Administration", time.Now())
	if !pipeline.Gate.Check(context.Background(), seen).Accepted {
		t.Fatal("Expected first sighting to be accepted")
	}

	task := NewFetchSourceTask(pibSource(server.URL), pipeline)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if len(result.Accepted) != 1 || result.Duplicates != 1 {
		t.Fatalf("Expected 1 accepted and 1 duplicate, got %d / %d", len(result.Accepted), result.Duplicates)
	}
	if result.Accepted[0].URL != "https://pib.gov.in/release/3" {
		t.Errorf("Unexpected accepted article %s", result.Accepted[0].URL)
	}
}

func TestFetchSourceTask_Filters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveFeed(w)
	}))
	defer server.Close()

	pipeline, _ := newTestPipeline(t, server.Client(), nil)

	src := pibSource(server.URL)
	src.Filters = []source.Filter{{Field: "title", Excludes: []string{"sebi"}}}

	task := NewFetchSourceTask(src, pipeline)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if result.Filtered != 1 || len(result.Accepted) != 1 {
		t.Errorf("Expected 1 filtered and 1 accepted, got %d / %d", result.Filtered, len(result.Accepted))
	}
}

func TestFetchSourceTask_ExtractContent(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rss" {
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Releases</title>
<item><title>Cabinet approves data protection rules</title><link>` + server.URL + `/release/1</link></item>
</channel></rss>`))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Release</title></head><body><article>
<h1>Cabinet approves data protection rules</h1>
<p>The Union Cabinet approved the rules that operationalise the Digital Personal Data Protection Act.
The rules set out consent manager registration and breach notification timelines for data fiduciaries.</p>
<p>The ministry will notify the rules in the official gazette after consultation with stakeholders.</p>
</article></body></html>`))
	}))
	defer server.Close()

	pipeline, _ := newTestPipeline(t, server.Client(), nil)

	src := pibSource(server.URL + "/rss")
	src.ExtractContent = true

	task := NewFetchSourceTask(src, pipeline)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	result := task.Result()
	if len(result.Accepted) != 1 {
		t.Fatalf("Expected 1 accepted article, got %d", len(result.Accepted))
	}
	if result.Accepted[0].Content == "" {
		t.Error("Expected article content to be enriched from the linked page")
	}
}

func TestFetchSourceTask_CancelledContext(t *testing.T) {
	pipeline, _ := newTestPipeline(t, http.DefaultClient, nil)
	task := NewFetchSourceTask(pibSource("https://example.invalid/rss"), pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); err == nil {
		t.Error("Expected context error")
	}
	if task.Result().Health.Status != StatusFailed {
		t.Error("Expected failed status for cancelled task")
	}
}
