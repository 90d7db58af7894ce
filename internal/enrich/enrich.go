// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich fetches full page text and a summary for a single result
// through the content-fetch service. The service is slow and throttled, so
// every attempt passes through the shared rate limiter, and transient
// failures are retried with exponential backoff plus jitter. Failure is
// data: the fetcher never returns an error, it returns EnrichedContent
// with a failed status so one bad item cannot abort a batch.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/trendsift/pkg/types"
)

// contentsAPIBase is the Exa contents endpoint. Declared as a var so tests
// can substitute an httptest server.
var contentsAPIBase = "https://api.exa.ai/contents"

// Gate admits one content-fetch call, blocking as needed. Satisfied by
// ratelimit.Limiter.
type Gate interface {
	Acquire(ctx context.Context) error
}

// Fetcher retrieves full content for result URLs.
type Fetcher struct {
	Client  *http.Client
	Limiter Gate
	APIKey  string
	Config  types.EnrichConfig

	// now, sleep, and jitter are swappable in tests.
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// NewFetcher wires a fetcher to the shared limiter.
func NewFetcher(client *http.Client, limiter Gate, apiKey string, cfg types.EnrichConfig) *Fetcher {
	return &Fetcher{
		Client:  client,
		Limiter: limiter,
		APIKey:  apiKey,
		Config:  cfg,
		now:     time.Now,
		sleep:   sleepCtx,
		jitter: func(max time.Duration) time.Duration {
			if max <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

// Fetch retrieves the full text and summary for rawURL. Transient failures
// (timeout, transport, 429, 5xx) are retried up to Config.MaxAttempts total
// attempts with a doubling backoff plus jitter; permanent failures (other
// 4xx, malformed URL) fail immediately. The returned content carries a
// failed status instead of an error on exhaustion.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) types.EnrichedContent {
	failed := func(reason string) types.EnrichedContent {
		return types.EnrichedContent{
			Status:     types.EnrichmentFailed,
			FailReason: reason,
			FetchedAt:  f.now(),
		}
	}

	if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		return failed(fmt.Sprintf("malformed url %q", rawURL))
	}

	maxAttempts := f.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	base := f.Config.BackoffBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	var lastReason string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// Doubling backoff with jitter so back-to-back batch
			// retries do not synchronize.
			backoff := base << (attempt - 1)
			backoff += f.jitter(backoff / 2)
			if err := f.sleep(ctx, backoff); err != nil {
				return failed(lastReason)
			}
		}

		if err := f.Limiter.Acquire(ctx); err != nil {
			return failed(fmt.Sprintf("rate limiter: %v", err))
		}

		content, reason, transient := f.attempt(ctx, rawURL)
		if reason == "" {
			return content
		}
		lastReason = reason
		if !transient {
			return failed(reason)
		}
	}
	return failed(lastReason)
}

// attempt issues one content-fetch request. A non-empty reason signals
// failure; transient reports whether it is worth retrying.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (content types.EnrichedContent, reason string, transient bool) {
	body, err := json.Marshal(contentsRequest{
		URLs:    []string{rawURL},
		Text:    true,
		Summary: true,
	})
	if err != nil {
		return content, fmt.Sprintf("encoding request: %v", err), false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, contentsAPIBase, bytes.NewReader(body))
	if err != nil {
		return content, fmt.Sprintf("creating request: %v", err), false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", f.APIKey)
	req.Header.Set("User-Agent", f.Config.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return content, "timeout", true
		}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return content, "timeout", true
		}
		return content, fmt.Sprintf("transport: %v", err), true
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode.
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return content, fmt.Sprintf("HTTP %d", resp.StatusCode), true
	default:
		// Remaining 4xx are permanent.
		return content, fmt.Sprintf("HTTP %d", resp.StatusCode), false
	}

	var cr contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return content, fmt.Sprintf("parsing response: %v", err), false
	}
	if len(cr.Results) == 0 {
		return content, "empty contents response", false
	}

	r := cr.Results[0]
	return types.EnrichedContent{
		FullText:  r.Text,
		Summary:   r.Summary,
		FetchedAt: f.now(),
		Status:    types.EnrichmentOK,
	}, "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Exa contents JSON structures.
type contentsRequest struct {
	URLs    []string `json:"urls"`
	Text    bool     `json:"text"`
	Summary bool     `json:"summary"`
}

type contentsResponse struct {
	Results []contentsResult `json:"results"`
}

type contentsResult struct {
	URL     string `json:"url"`
	Text    string `json:"text"`
	Summary string `json:"summary"`
}
