package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatusError_Retryable(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
		rejected  bool
	}{
		{http.StatusTooManyRequests, true, false},
		{http.StatusInternalServerError, true, false},
		{http.StatusBadGateway, true, false},
		{http.StatusServiceUnavailable, true, false},
		{http.StatusGatewayTimeout, true, false},
		{http.StatusUnauthorized, true, true},
		{http.StatusForbidden, true, true},
		{http.StatusNotFound, false, false},
		{http.StatusGone, false, false},
	}

	for _, test := range tests {
		err := &StatusError{Code: test.code, Status: http.StatusText(test.code)}
		if err.Retryable() != test.retryable {
			t.Errorf("Status %d: expected retryable %v", test.code, test.retryable)
		}
		if err.Rejected() != test.rejected {
			t.Errorf("Status %d: expected rejected %v", test.code, test.rejected)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("Expected nil error not to be retryable")
	}
	if !IsRetryable(errors.New("connection reset by peer")) {
		t.Error("Expected transport error to be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Error("Expected cancellation not to be retryable")
	}
	if !IsRetryable(fmt.Errorf("failed to fetch: %w", context.DeadlineExceeded)) {
		t.Error("Expected request timeout to be retryable")
	}
	if IsRetryable(&StatusError{Code: http.StatusNotFound}) {
		t.Error("Expected 404 not to be retryable")
	}
	if !IsRetryable(errors.Join(errors.New("wrapped"), &StatusError{Code: http.StatusBadGateway})) {
		t.Error("Expected wrapped 502 to be retryable")
	}
}

func TestPipelineNow_DefaultsToUTC(t *testing.T) {
	p := &Pipeline{}
	if loc := p.now().Location(); loc != time.UTC {
		t.Errorf("Expected UTC collection time, got %v", loc)
	}

	fixed := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	p.Now = func() time.Time { return fixed }
	if !p.now().Equal(fixed) {
		t.Errorf("Expected injected clock, got %v", p.now())
	}
}

func TestBackoff(t *testing.T) {
	base := 1500 * time.Millisecond

	if got := Backoff(base, 0, 0); got != base {
		t.Errorf("Expected %v for first retry, got %v", base, got)
	}
	if got := Backoff(base, 2, 0); got != 3375*time.Millisecond {
		t.Errorf("Expected 3.375s for third retry, got %v", got)
	}

	for i := 0; i < 20; i++ {
		got := Backoff(base, 1, time.Second)
		if got < 2250*time.Millisecond || got >= 3250*time.Millisecond {
			t.Errorf("Jittered delay out of range: %v", got)
		}
	}
}

func TestFetcher_Fetch(t *testing.T) {
	var gotAgent, gotReferer, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		gotLanguage = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), []string{"agent-a", "agent-b"}, 5*time.Second)

	resp, err := fetcher.Fetch(context.Background(), server.URL, Identity{Agent: 0})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(resp.Body) != "<rss/>" || resp.ContentType != "application/rss+xml" {
		t.Errorf("Unexpected response: %q %q", resp.Body, resp.ContentType)
	}
	if gotAgent != "agent-a" || gotReferer != "" {
		t.Errorf("Unexpected identity headers: %q %q", gotAgent, gotReferer)
	}
	if gotLanguage == "" {
		t.Error("Expected Accept-Language header")
	}

	rotated := fetcher.Rotate(Identity{Agent: 1})
	if rotated.Agent != 0 || !rotated.Referer {
		t.Errorf("Expected wrap-around with referer, got %+v", rotated)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL, rotated); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotReferer != searchReferer {
		t.Errorf("Expected search referer, got %q", gotReferer)
	}
}

func TestFetcher_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), nil, 5*time.Second)

	_, err := fetcher.Fetch(context.Background(), server.URL, fetcher.NextIdentity())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", statusErr.Code)
	}
	if err.Error() != "HTTP error: 503 Service Unavailable" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}

func TestFetcher_NextIdentityRoundRobin(t *testing.T) {
	fetcher := NewFetcher(http.DefaultClient, []string{"a", "b", "c"}, time.Second)

	var agents []string
	for i := 0; i < 4; i++ {
		agents = append(agents, fetcher.UserAgent(fetcher.NextIdentity()))
	}

	expected := []string{"a", "b", "c", "a"}
	for i := range expected {
		if agents[i] != expected[i] {
			t.Errorf("Position %d: expected %q, got %q", i, expected[i], agents[i])
		}
	}
}
