// Package base provides the outbound HTTP client used to probe tool links.
// It layers caching, in-flight deduplication, per-host circuit breaking and
// a concurrency limit over net/http.
package base

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/infra"
)

const (
	// DefaultTimeout bounds a single probe, retries included.
	DefaultTimeout = 10 * time.Second

	// DefaultCacheTTL is how long a probe result is reused.
	DefaultCacheTTL = 10 * time.Minute

	// MaxConcurrentRequests limits parallel probes.
	MaxConcurrentRequests = 5

	// DefaultUserAgent identifies probes to the sites being checked.
	DefaultUserAgent = "teacher-toolkit-mcp-server/1.0 (+link check)"
)

// ProbeResult is the outcome of checking one URL. Failures are carried in
// Error rather than returned, so a batch check can report every link.
type ProbeResult struct {
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code,omitempty"`
	OK         bool          `json:"ok"`
	Method     string        `json:"method,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Cached     bool          `json:"cached,omitempty"`
	Shared     bool          `json:"shared,omitempty"`
}

// Client probes URLs.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Cache      *infra.Cache[ProbeResult]
	CacheTTL   time.Duration
	Dedup      *infra.RequestDeduplicator[ProbeResult]
	Breakers   *infra.BreakerSet
	Semaphore  chan struct{}
	UserAgent  string
	MaxRetry   int
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) { client.HTTPClient = c }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) { client.Logger = l }
}

// WithCacheTTL sets how long results are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(client *Client) { client.CacheTTL = ttl }
}

// WithConcurrency sets the number of parallel probes.
func WithConcurrency(n int) ClientOption {
	return func(client *Client) {
		if n > 0 {
			client.Semaphore = make(chan struct{}, n)
		}
	}
}

// WithBreakerConfig replaces the per-host breaker settings.
func WithBreakerConfig(cfg infra.BreakerConfig) ClientOption {
	return func(client *Client) { client.Breakers = infra.NewBreakerSet(cfg) }
}

// NewClient creates a probe client with default settings.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(DefaultTimeout),
		Logger:     slog.Default(),
		Cache:      infra.NewCache[ProbeResult](infra.DefaultMaxCacheEntries),
		CacheTTL:   DefaultCacheTTL,
		Dedup:      infra.NewRequestDeduplicator[ProbeResult](),
		Breakers:   infra.NewBreakerSet(infra.DefaultBreakerConfig),
		Semaphore:  make(chan struct{}, MaxConcurrentRequests),
		UserAgent:  DefaultUserAgent,
		MaxRetry:   2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	if c.Cache != nil {
		c.Cache.Close()
	}
}

// AcquireSlot blocks until a probe slot is free or ctx is done.
func (c *Client) AcquireSlot(ctx context.Context) error {
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for probe slot: %w", ctx.Err())
	}
}

// ReleaseSlot releases a probe slot.
func (c *Client) ReleaseSlot() {
	<-c.Semaphore
}

// Probe checks rawURL, using a cached result when one is fresh and joining
// an identical probe already in flight. The probe itself runs detached from
// ctx under DefaultTimeout, so a caller that gives up early neither cancels
// it for other waiters nor leaves a failure in the cache.
func (c *Client) Probe(ctx context.Context, rawURL string) ProbeResult {
	if c.CacheTTL > 0 {
		if cached, ok := c.Cache.Get(rawURL); ok {
			cached.Cached = true
			cached.Shared = false
			return cached
		}
	}
	if err := ctx.Err(); err != nil {
		return abandoned(rawURL, err)
	}

	type outcome struct {
		result ProbeResult
		shared bool
		err    error
	}
	done := make(chan outcome, 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		result, shared, err := c.Dedup.Do(detached, rawURL, func() (ProbeResult, error) {
			pctx, cancel := context.WithTimeout(detached, DefaultTimeout)
			defer cancel()
			r := c.probe(pctx, rawURL)
			if c.CacheTTL > 0 && r.Error != errCanceled {
				c.Cache.Set(rawURL, r, c.CacheTTL)
			}
			return r, nil
		})
		done <- outcome{result, shared, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return ProbeResult{URL: rawURL, Error: o.err.Error()}
		}
		o.result.Shared = o.shared
		return o.result
	case <-ctx.Done():
		return abandoned(rawURL, ctx.Err())
	}
}

const errCanceled = "probe canceled"

// abandoned reports a probe the caller stopped waiting for.
func abandoned(rawURL string, err error) ProbeResult {
	return ProbeResult{URL: rawURL, Error: fmt.Sprintf("%s: %v", errCanceled, err)}
}

func (c *Client) probe(ctx context.Context, rawURL string) ProbeResult {
	start := time.Now()
	result := ProbeResult{URL: rawURL}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.Error = "invalid url"
		result.Duration = time.Since(start)
		return result
	}

	breaker := c.Breakers.For(u.Hostname())
	if !breaker.Allow() {
		result.Error = breaker.Err(u.Hostname()).Error()
		result.Duration = time.Since(start)
		return result
	}

	if err := c.AcquireSlot(ctx); err != nil {
		result.Error = errCanceled
		result.Duration = time.Since(start)
		return result
	}
	defer c.ReleaseSlot()

	status, method, err := c.headThenGet(ctx, rawURL)
	result.StatusCode, result.Method = status, method
	result.Duration = time.Since(start)

	switch {
	case ctx.Err() != nil:
		result.Error = errCanceled
		return result
	case err != nil:
		breaker.RecordFailure()
		result.Error = err.Error()
		c.Logger.Debug("Link probe failed", "url", rawURL, "error", err)
	case status >= 500:
		breaker.RecordFailure()
		result.Error = http.StatusText(status)
	default:
		breaker.RecordSuccess()
		result.OK = status < 400
		if !result.OK {
			result.Error = http.StatusText(status)
		}
	}
	return result
}

// headThenGet issues HEAD and retries with GET when the server does not
// support HEAD. Transport errors and 5xx answers are retried with backoff.
func (c *Client) headThenGet(ctx context.Context, rawURL string) (int, string, error) {
	maxRetry := c.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 1
	}

	var (
		status  int
		lastErr error
		method  = http.MethodHead
	)
	for attempt := 0; attempt < maxRetry; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 100 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return 0, method, ctx.Err()
			}
		}

		status, lastErr = c.do(ctx, method, rawURL)
		if lastErr == nil && method == http.MethodHead &&
			(status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
			method = http.MethodGet
			status, lastErr = c.do(ctx, method, rawURL)
		}
		if lastErr != nil {
			if ctx.Err() != nil {
				return 0, method, ctx.Err()
			}
			c.Logger.Debug("Link probe attempt failed, retrying",
				"attempt", attempt+1,
				"url", rawURL,
				"error", lastErr)
			continue
		}
		if status >= 500 {
			continue
		}
		return status, method, nil
	}
	return status, method, lastErr
}

func (c *Client) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/html,*/*")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	// Only the status matters; drain a little so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// newHTTPClient creates an HTTP client tuned for many small requests to
// different hosts.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
