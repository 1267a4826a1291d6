package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "kplanning/internal/log"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxBodyBytes        = 10 << 20
)

// Fetcher downloads remote .ics files for import.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher. A nil client gets a 15s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Fetcher{client: client}
}

// Fetch GETs rawURL and returns the body. Non-200 responses are errors.
// The URL is redacted in logs since calendar links often embed tokens.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, errors.New("ics: fetch url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ics: build request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")

	appLog.Info("ics fetch start", "url", redactURL(rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		appLog.Error("ics fetch failed", err, "url", redactURL(rawURL))
		return nil, fmt.Errorf("ics: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("ics: fetch: unexpected status %s", resp.Status)
		appLog.Error("ics fetch non-OK", err, "url", redactURL(rawURL), "status", resp.StatusCode)
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ics: read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("ics: body exceeds %d bytes", maxBodyBytes)
	}

	appLog.Info("ics fetch success", "url", redactURL(rawURL), "bytes", len(body))
	return body, nil
}

// redactURL keeps scheme and host only.
//
//	https://example.com/private/abc.ics?token=x -> https://example.com/...(redacted)
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
