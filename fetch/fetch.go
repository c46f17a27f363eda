// Package fetch provides the HTTP client shared by the resolution and
// extraction stages. It applies a per-request browser User-Agent from a small
// rotating pool, which news sites expect from non-API traffic.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds a single request, including redirects.
const DefaultTimeout = 20 * time.Second

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

var requestCount atomic.Uint64

// Client is an http.Client tuned for article fetching.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the given timeout. A zero timeout uses
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Get issues a GET request with rotated browser headers and follows
// redirects. The caller owns the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	n := requestCount.Add(1)
	req.Header.Set("User-Agent", userAgents[int(n)%len(userAgents)])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	return c.http.Do(req)
}

// Post issues a POST request with a form body. Used by the specialized
// aggregator decoder.
func (c *Client) Post(ctx context.Context, url, contentType string, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	n := requestCount.Add(1)
	req.Header.Set("User-Agent", userAgents[int(n)%len(userAgents)])
	req.Header.Set("Content-Type", contentType)

	return c.http.Do(req)
}
