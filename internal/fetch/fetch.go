// Package fetch is the single HTTP primitive under the pipeline:
// blocking retrieval of a URL's body as text plus a header-only size
// probe. No retries happen here; callers decide whether a failure is
// fatal or skippable.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mkorpi/alexandria/internal/cache"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/ratelimit"
)

// SizeUnknown is returned by ContentLength when the probe fails for any
// reason. It is distinct from a genuine size of 0.
const SizeUnknown = int64(-1)

// maxRedirects bounds redirect following for every fetch.
const maxRedirects = 4

// Client fetches text over HTTP with per-host rate limiting and an
// optional response cache. All operations block the calling goroutine.
type Client struct {
	http     *http.Client
	limiters *ratelimit.Registry
	cache    *cache.DB
	cacheTTL time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache attaches a response cache so repeated runs skip URLs that
// were already fetched within ttl.
func WithCache(db *cache.DB, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = db
		c.cacheTTL = ttl
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// New creates a Client limited to requestsPerSecond per remote host.
func New(requestsPerSecond int, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiters: ratelimit.NewRegistry(requestsPerSecond),
		cacheTTL: cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Text returns the body of rawURL as text, following up to four
// redirects. A 404 response is reported as a NotFoundError; any other
// non-2xx status or network problem is a plain error.
func (c *Client) Text(ctx context.Context, rawURL string) (string, error) {
	if c.cache != nil {
		entry, hit, err := c.cache.Get(rawURL, c.cacheTTL)
		if err != nil {
			slog.Warn("Cache lookup failed, fetching directly", "url", rawURL, "error", err)
		} else if hit {
			if entry.NotFound {
				return "", apperrors.NewNotFoundError(rawURL)
			}
			slog.Debug("Cache hit", "url", rawURL)
			return entry.Body, nil
		}
	}

	if err := c.wait(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed for %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		c.store(rawURL, cache.Entry{NotFound: true})
		return "", apperrors.NewNotFoundError(rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	text := string(body)
	c.store(rawURL, cache.Entry{Body: text})
	return text, nil
}

// ContentLength probes rawURL with a HEAD request and returns the
// reported content length. Any failure, including a missing header,
// yields SizeUnknown.
func (c *Client) ContentLength(ctx context.Context, rawURL string) int64 {
	if err := c.wait(ctx, rawURL); err != nil {
		return SizeUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return SizeUnknown
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("Size probe failed", "url", rawURL, "error", err)
		return SizeUnknown
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SizeUnknown
	}
	if resp.ContentLength < 0 {
		return SizeUnknown
	}
	return resp.ContentLength
}

func (c *Client) wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	return c.limiters.ForHost(u.Hostname()).Wait(ctx)
}

func (c *Client) store(rawURL string, entry cache.Entry) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(rawURL, entry); err != nil {
		// A cache failure must never fail the fetch.
		slog.Warn("Failed to cache response", "url", rawURL, "error", err)
	}
}
