package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	maxResponseSize = 10 << 20
	searchReferer   = "https://www.google.com/search?q=news"
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.Code, e.Status)
}

// Retryable reports whether another attempt at the same endpoint may succeed.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusUnauthorized,
		http.StatusForbidden:
		return true
	}
	return false
}

// Rejected reports a 401 or 403, which is answered by switching identity.
func (e *StatusError) Rejected() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// IsRetryable classifies a fetch error. Transport errors, including an
// expired per-request timeout, are retryable; cancellation is not. Callers
// check their own context before retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

func isRejected(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Rejected()
}

// Identity selects the client headers of a request.
type Identity struct {
	Agent   int
	Referer bool
}

type Response struct {
	Body        []byte
	ContentType string
}

// Fetcher performs GET requests with a rotating set of user agents.
type Fetcher struct {
	client     *http.Client
	userAgents []string
	timeout    time.Duration
	next       atomic.Uint32
}

func NewFetcher(client *http.Client, userAgents []string, timeout time.Duration) *Fetcher {
	if len(userAgents) == 0 {
		userAgents = []string{"PolicyRadar/1.0"}
	}
	return &Fetcher{
		client:     client,
		userAgents: userAgents,
		timeout:    timeout,
	}
}

// NextIdentity hands out starting identities round-robin across tasks.
func (f *Fetcher) NextIdentity() Identity {
	return Identity{Agent: int(f.next.Add(1)-1) % len(f.userAgents)}
}

func (f *Fetcher) UserAgent(id Identity) string {
	return f.userAgents[id.Agent%len(f.userAgents)]
}

// Rotate returns the next identity after a rejection.
func (f *Fetcher) Rotate(id Identity) Identity {
	return Identity{Agent: (id.Agent + 1) % len(f.userAgents), Referer: true}
}

func (f *Fetcher) Fetch(ctx context.Context, url string, id Identity) (*Response, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.UserAgent(id))
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	if id.Referer {
		req.Header.Set("Referer", searchReferer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
