// Package http provides the pooled, retrying HTTP client used to fetch
// documentation pages, and sitemap-based seed discovery.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fwojciec/docscrape"
)

// DefaultFetchTimeout is the default per-attempt timeout.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxBodyBytes bounds how much of a response body is read.
const DefaultMaxBodyBytes = 10 << 20

// DefaultUserAgent identifies the client to servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; docscrape)"

// Ensure Client implements docscrape.Fetcher at compile time.
var (
	_ docscrape.Fetcher       = (*Client)(nil)
	_ docscrape.StatsReporter = (*Client)(nil)
)

// Client fetches pages through a bounded connection pool, retrying
// transient failures with exponential backoff. A 429 response also asks
// the rate limiter to slow down the offending host.
type Client struct {
	client      *http.Client
	transport   http.RoundTripper
	pool        *Pool
	maxTotal    int
	maxPerHost  int
	limiter     docscrape.RateLimiter
	timeout     time.Duration
	maxAttempts int
	backoff     Backoff
	cooldown    time.Duration
	maxBody     int64
	userAgent   string

	requests atomic.Int64
	attempts atomic.Int64
	retries  atomic.Int64
	errors   atomic.Int64
	bytes    atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout of each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithConnectionLimits sets the global and per-host connection caps.
func WithConnectionLimits(maxTotal, maxPerHost int) Option {
	return func(c *Client) {
		c.maxTotal = maxTotal
		c.maxPerHost = maxPerHost
	}
}

// WithMaxAttempts sets the maximum number of attempts per fetch,
// including the first.
func WithMaxAttempts(n int) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// WithBackoff sets the retry backoff base and cap.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) { c.backoff = Backoff{Base: base, Max: maxDelay} }
}

// WithRateLimiter sets the limiter notified about 429 responses and how
// long the offending host is slowed down at minimum.
func WithRateLimiter(l docscrape.RateLimiter, cooldown time.Duration) Option {
	return func(c *Client) {
		c.limiter = l
		c.cooldown = cooldown
	}
}

// WithMaxBodyBytes bounds the response body size.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport replaces the underlying transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		maxTotal:    10,
		maxPerHost:  5,
		timeout:     DefaultFetchTimeout,
		maxAttempts: DefaultMaxAttempts,
		backoff:     Backoff{Base: DefaultBackoffBase, Max: DefaultMaxBackoff},
		maxBody:     DefaultMaxBodyBytes,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 1
	}

	c.pool = NewPool(c.maxTotal, c.maxPerHost)

	if c.transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxConnsPerHost = c.maxPerHost
		t.MaxIdleConnsPerHost = c.maxPerHost
		t.MaxIdleConns = c.maxTotal
		c.transport = t
	}
	c.client = &http.Client{Transport: c.transport}

	return c
}

// Fetch retrieves url. Transient failures (timeouts, connection resets,
// 5xx, 429) are retried up to the attempt limit and then reported as
// EPERMANENT. Other 4xx responses, DNS failures and invalid URLs fail
// immediately with EPERMANENT. Cancellation of ctx returns ECANCELED.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*docscrape.Response, error) {
	c.requests.Add(1)

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.errors.Add(1)
		return nil, docscrape.Errorf(docscrape.EPERMANENT, "invalid URL")
	}
	host := u.Host

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.retries.Add(1)
			delay := c.backoff.Delay(attempt - 1)
			var se *statusError
			if errors.As(lastErr, &se) && se.retryAfter > delay {
				delay = se.retryAfter
				if c.backoff.Max > 0 && delay > c.backoff.Max {
					delay = c.backoff.Max
				}
			}
			if err := sleep(ctx, delay); err != nil {
				return nil, &docscrape.FetchError{
					Attempts: attempt - 1,
					Err:      docscrape.Wrap(docscrape.ECANCELED, err, "fetch canceled"),
				}
			}
		}

		resp, err := c.do(ctx, host, rawURL)
		if err == nil {
			resp.Attempts = attempt
			return resp, nil
		}
		c.errors.Add(1)
		lastErr = err

		if docscrape.ErrorCode(err) != docscrape.ETRANSIENT {
			return nil, &docscrape.FetchError{Attempts: attempt, Err: err}
		}

		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusTooManyRequests && c.limiter != nil {
			c.limiter.Slowdown(host, max(se.retryAfter, c.cooldown))
		}
	}

	return nil, &docscrape.FetchError{
		Attempts: c.maxAttempts,
		Err:      docscrape.Wrap(docscrape.EPERMANENT, lastErr, "giving up after %d attempts", c.maxAttempts),
	}
}

// do performs a single attempt while holding a pool slot.
func (c *Client) do(ctx context.Context, host, rawURL string) (*docscrape.Response, error) {
	release, err := c.pool.Acquire(ctx, host)
	if err != nil {
		return nil, err
	}
	defer release()

	c.attempts.Add(1)

	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, docscrape.Errorf(docscrape.EPERMANENT, "invalid request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, docscrape.Errorf(docscrape.EPERMANENT, "response exceeds %d bytes", c.maxBody)
	}
	c.bytes.Add(int64(len(body)))

	switch code := resp.StatusCode; {
	case code < 400:
		finalURL := rawURL
		if resp.Request != nil && resp.Request.URL != nil {
			finalURL = resp.Request.URL.String()
		}
		return &docscrape.Response{
			URL:        finalURL,
			StatusCode: code,
			Header:     resp.Header,
			Body:       body,
		}, nil
	case code == http.StatusTooManyRequests:
		se := &statusError{code: code, retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}
		return nil, docscrape.Wrap(docscrape.ETRANSIENT, se, "rate limited")
	case code >= 500:
		return nil, docscrape.Wrap(docscrape.ETRANSIENT, &statusError{code: code}, "server error")
	default:
		return nil, docscrape.Wrap(docscrape.EPERMANENT, &statusError{code: code}, "HTTP %d", code)
	}
}

// Stats returns cumulative counters.
func (c *Client) Stats() docscrape.FetchStats {
	return docscrape.FetchStats{
		Requests: c.requests.Load(),
		Attempts: c.attempts.Load(),
		Retries:  c.retries.Load(),
		Errors:   c.errors.Load(),
		Bytes:    c.bytes.Load(),
	}
}

// PoolStats returns connection slot usage.
func (c *Client) PoolStats() PoolStats {
	return c.pool.Stats()
}

// Close closes idle pooled connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// statusError carries an HTTP status through the error chain.
type statusError struct {
	code       int
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

// classify maps a transport error to an error code. ctx is the caller's
// context: its cancellation is reported as ECANCELED rather than a
// timeout.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return docscrape.Wrap(docscrape.ECANCELED, ctx.Err(), "fetch canceled")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound || !dnsErr.IsTemporary {
			return docscrape.Wrap(docscrape.EPERMANENT, err, "DNS lookup failed")
		}
		return docscrape.Wrap(docscrape.ETRANSIENT, err, "DNS lookup failed")
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return docscrape.Wrap(docscrape.EPERMANENT, err, "TLS verification failed")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return docscrape.Wrap(docscrape.ETRANSIENT, err, "request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return docscrape.Wrap(docscrape.ETRANSIENT, err, "request timed out")
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return docscrape.Wrap(docscrape.ETRANSIENT, err, "connection reset")
	case errors.Is(err, syscall.ECONNREFUSED):
		return docscrape.Wrap(docscrape.ETRANSIENT, err, "connection refused")
	}
	return docscrape.Wrap(docscrape.ETRANSIENT, err, "request failed")
}
