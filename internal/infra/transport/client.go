// Package transport implements the per-service HTTP client used by every
// upstream integration.
//
// Each request carries its own retry budget, so one Client serves many
// independent retry sequences concurrently.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vietddude/cinemap/internal/infra/retry"
	"github.com/vietddude/cinemap/internal/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	maxBodyBytes     = 4 << 20
	maxRetryAfter    = 30 * time.Second
	computedDelayCap = 3 * time.Second
)

// Policy is the declarative retry setting attached to a request.
type Policy struct {
	// Budget is the number of attempts allowed before giving up. Zero
	// disables retrying and surfaces the first failure unchanged.
	Budget int
	// Delay is the fixed wait between attempts. Zero selects the computed
	// delay min(1s * (3 - remaining), 3s).
	Delay time.Duration
}

// delay returns the wait before the next attempt given the remaining budget.
func (p Policy) delay(remaining int) time.Duration {
	if p.Delay > 0 {
		return p.Delay
	}
	d := time.Duration(3-remaining) * time.Second
	if d < 0 {
		return 0
	}
	if d > computedDelayCap {
		return computedDelayCap
	}
	return d
}

// retryState is the per-request retry context: remaining budget, delay
// policy and last observed failure. It lives only for one Do call.
type retryState struct {
	policy    Policy
	remaining int
	attempts  int
	lastErr   error
}

// Request describes one logical upstream request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	Retry  Policy
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Config configures a Client.
type Config struct {
	Name      string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Quota     QuotaConfig
}

// Client is a long-lived HTTP client bound to one upstream service.
type Client struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	monitor    *Monitor
	quota      *Quota
	closed     atomic.Bool
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// NewClient creates a client for the service at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url for %s: %w", cfg.Name, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		name:      cfg.Name,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
		monitor: NewMonitor(),
		quota:   NewQuota(cfg.Name, cfg.Quota),
		sleep:   sleepContext,
		log:     slog.Default().With("component", "transport", "service", cfg.Name),
	}, nil
}

// Name returns the service name.
func (c *Client) Name() string {
	return c.name
}

// Monitor returns the service health monitor.
func (c *Client) Monitor() *Monitor {
	return c.monitor
}

// Usage returns quota usage, or nil when the service has no quota.
func (c *Client) Usage() *UsageStats {
	if c.quota == nil {
		return nil
	}
	u := c.quota.Usage()
	return &u
}

// Close releases idle connections. Requests on a closed client fail with
// ErrClientClosed.
func (c *Client) Close() error {
	c.closed.Store(true)
	c.httpClient.CloseIdleConnections()
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Get is a convenience wrapper for a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, policy Policy) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Retry: policy})
}

// Do sends req, re-issuing the identical request on retryable failures
// until the request's budget is spent.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("%s: %w", c.name, ErrClientClosed)
	}
	state := &retryState{policy: req.Retry, remaining: req.Retry.Budget}

	for {
		state.attempts++
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}

		if state.policy.Budget <= 0 || !retry.ShouldRetry(err) {
			return nil, err
		}

		state.lastErr = err
		state.remaining--
		if state.remaining <= 0 {
			return nil, &ExhaustedError{Service: c.name, Attempts: state.attempts, Last: state.lastErr}
		}

		delay := state.policy.delay(state.remaining)
		if ra := retryAfterOf(err); ra > delay {
			delay = ra
		}

		metrics.RetriesTotal.WithLabelValues(c.name, "transport").Inc()
		c.log.Warn("Upstream request failed, retrying",
			"path", req.Path,
			"attempt", state.attempts,
			"remaining", state.remaining,
			"delay", delay,
			"error", err,
		)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	if err := c.quota.Acquire(ctx, c.sleep); err != nil {
		return nil, err
	}
	start := time.Now()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordFailure()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("%s read response: %w", c.name, err)
	}

	latency := time.Since(start)
	metrics.UpstreamLatency.WithLabelValues(c.name).Observe(latency.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{
			Service:    c.name,
			URL:        httpReq.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			se.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			c.monitor.RecordThrottle(resp.StatusCode, se.RetryAfter)
		case http.StatusForbidden:
			c.monitor.RecordThrottle(resp.StatusCode, 0)
		default:
			if c.monitor.DetectThrottlePattern(se.Body) {
				c.monitor.RecordThrottle(http.StatusTooManyRequests, 0)
			}
		}
		c.recordFailure()
		return nil, se
	}

	c.monitor.RecordSuccess(latency)
	metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "success").Inc()

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

func (c *Client) recordFailure() {
	c.monitor.RecordFailure()
	metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "failure").Inc()
}

func retryAfterOf(err error) time.Duration {
	se, ok := err.(*StatusError)
	if !ok || se.RetryAfter <= 0 {
		return 0
	}
	if se.RetryAfter > maxRetryAfter {
		return maxRetryAfter
	}
	return se.RetryAfter
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
