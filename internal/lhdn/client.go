// Package lhdn implements the paginated, rate-limit aware fetcher for the
// LHDN MyInvois recent documents API.
package lhdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/einvoice-sync/lhdn-sync-server/internal/httpclient"
	"github.com/einvoice-sync/lhdn-sync-server/internal/otel"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

// Defaults for the fetcher
const (
	DefaultTimeout           = 60 * time.Second
	MinTimeout               = 30 * time.Second
	MaxTimeout               = 300 * time.Second
	DefaultMaxRetries        = 3
	DefaultBaseDelay         = time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultRateLimitBuffer   = time.Second
	DefaultMaxRateLimitWaits = 10

	recentDocumentsPath = "/documents/recent"
)

// PageRequest selects one page of the recent documents feed
type PageRequest struct {
	PageNo    int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Page is one page of raw document payloads plus pagination metadata
type Page struct {
	Records []json.RawMessage
	// TotalPages is zero when the API did not report it
	TotalPages int
	TotalCount int
}

// Client fetches pages from the LHDN API
type Client struct {
	http              httpclient.Client
	baseURL           string
	maxRetries        int
	baseDelay         time.Duration
	maxDelay          time.Duration
	rateLimitBuffer   time.Duration
	maxRateLimitWaits int
	sleep             Sleeper
	now               func() time.Time
	jitter            func(time.Duration) time.Duration
	tracer            trace.Tracer
	metrics           *telemetry.SyncMetrics
}

// Option configures a Client
type Option func(*clientConfig)

type clientConfig struct {
	timeout           time.Duration
	maxRetries        int
	baseDelay         time.Duration
	maxDelay          time.Duration
	rateLimitBuffer   time.Duration
	maxRateLimitWaits int
	sleep             Sleeper
	now               func() time.Time
	jitter            func(time.Duration) time.Duration
	httpClient        httpclient.Client
	tracer            trace.Tracer
	metrics           *telemetry.SyncMetrics
}

// WithTimeout sets the per-request timeout, clamped to [MinTimeout, MaxTimeout]
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = ClampTimeout(d)
	}
}

// WithRetry sets the transient retry budget and delay bounds
func WithRetry(maxRetries int, baseDelay, maxDelay time.Duration) Option {
	return func(c *clientConfig) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
		if maxDelay > 0 {
			c.maxDelay = maxDelay
		}
	}
}

// WithRateLimitBuffer sets the safety margin added to rate-limit reset waits
func WithRateLimitBuffer(d time.Duration) Option {
	return func(c *clientConfig) {
		if d >= 0 {
			c.rateLimitBuffer = d
		}
	}
}

// WithMaxRateLimitWaits bounds how many 429 responses a single page may absorb
func WithMaxRateLimitWaits(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxRateLimitWaits = n
		}
	}
}

// WithSleeper replaces the sleep function, mainly for tests
func WithSleeper(s Sleeper) Option {
	return func(c *clientConfig) {
		c.sleep = s
	}
}

// WithClock replaces the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.now = now
	}
}

// WithJitter replaces the jitter source, mainly for tests
func WithJitter(j func(time.Duration) time.Duration) Option {
	return func(c *clientConfig) {
		c.jitter = j
	}
}

// WithHTTPClient replaces the underlying HTTP client. The token source is
// ignored when this option is used.
func WithHTTPClient(h httpclient.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = h
	}
}

// WithTracer sets the tracer for request spans
func WithTracer(t trace.Tracer) Option {
	return func(c *clientConfig) {
		c.tracer = t
	}
}

// WithMetrics sets the sync metrics recorder
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

// ClampTimeout applies the default and the allowed bounds to a request timeout
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

// NewClient creates a fetcher for the API at baseURL authenticated by ts
func NewClient(baseURL string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("lhdn base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid lhdn base URL %q: %w", baseURL, err)
	}

	cfg := &clientConfig{
		timeout:           DefaultTimeout,
		maxRetries:        DefaultMaxRetries,
		baseDelay:         DefaultBaseDelay,
		maxDelay:          DefaultMaxDelay,
		rateLimitBuffer:   DefaultRateLimitBuffer,
		maxRateLimitWaits: DefaultMaxRateLimitWaits,
		sleep:             sleepWithContext,
		now:               time.Now,
		jitter:            randomJitter,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		if ts == nil {
			return nil, fmt.Errorf("lhdn token source is required")
		}
		hc = httpclient.NewDefaultClient(cfg.timeout, httpclient.WithTransport(&oauth2.Transport{
			Source: ts,
			Base:   http.DefaultTransport,
		}))
	}

	return &Client{
		http:              hc,
		baseURL:           baseURL,
		maxRetries:        cfg.maxRetries,
		baseDelay:         cfg.baseDelay,
		maxDelay:          cfg.maxDelay,
		rateLimitBuffer:   cfg.rateLimitBuffer,
		maxRateLimitWaits: cfg.maxRateLimitWaits,
		sleep:             cfg.sleep,
		now:               cfg.now,
		jitter:            cfg.jitter,
		tracer:            cfg.tracer,
		metrics:           cfg.metrics,
	}, nil
}

// FetchPage fetches one page, honoring and updating the shared rate-limit state.
// Auth failures and other 4xx rejections return immediately. 429 responses wait for the advertised reset and
// do not consume the retry budget. Network and server failures are retried with
// exponential backoff and jitter up to the configured maximum.
func (c *Client) FetchPage(ctx context.Context, rl *RateLimitState, req PageRequest) (*Page, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "lhdn.FetchPage",
		trace.WithAttributes(
			otel.AttrPageNo.Int(req.PageNo),
			otel.AttrPageSize.Int(req.PageSize),
		),
	)
	defer span.End()

	if rl == nil {
		rl = NewRateLimitState()
	}

	pageURL := c.pageURL(req)
	b := newExponentialJitter(c.baseDelay, c.maxDelay, c.maxRetries)
	b.jitter = c.jitter
	rateLimitWaits := 0

	for {
		if err := c.waitForBudget(ctx, rl); err != nil {
			otel.RecordError(span, err)
			return nil, &RequestError{Kind: ErrNetwork, URL: pageURL, Err: err}
		}

		page, err := c.fetchOnce(ctx, rl, pageURL)
		if err == nil {
			span.SetAttributes(otel.AttrResultCount.Int(len(page.Records)))
			return page, nil
		}

		switch {
		case errors.Is(err, ErrAuth), errors.Is(err, ErrRejected):
			otel.RecordError(span, err)
			return nil, err
		case errors.Is(err, ErrRateLimited):
			rateLimitWaits++
			if rateLimitWaits > c.maxRateLimitWaits {
				otel.RecordError(span, err)
				return nil, err
			}
			slog.Warn("LHDN rate limit hit, waiting for reset",
				"page", req.PageNo,
				"waits", rateLimitWaits)
			continue
		}

		if ctx.Err() != nil {
			otel.RecordError(span, err)
			return nil, err
		}

		delay := b.NextBackOff()
		if delay < 0 {
			otel.RecordError(span, err)
			return nil, err
		}
		slog.Warn("LHDN page request failed, retrying",
			"page", req.PageNo,
			"attempt", b.attempt,
			"delay", delay,
			"error", err)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			otel.RecordError(span, err)
			return nil, err
		}
	}
}

func (c *Client) pageURL(req PageRequest) string {
	q := url.Values{}
	q.Set("pageNo", strconv.Itoa(req.PageNo))
	q.Set("pageSize", strconv.Itoa(req.PageSize))
	if req.SortBy != "" {
		q.Set("sortBy", req.SortBy)
	}
	if req.SortOrder != "" {
		q.Set("sortOrder", req.SortOrder)
	}
	return c.baseURL + recentDocumentsPath + "?" + q.Encode()
}

// waitForBudget sleeps until the rate-limit reset when the budget is spent
func (c *Client) waitForBudget(ctx context.Context, rl *RateLimitState) error {
	wait := rl.WaitDuration(c.now())
	if wait <= 0 {
		return nil
	}
	wait += c.rateLimitBuffer

	slog.Info("LHDN rate-limit budget exhausted, sleeping until reset", "wait", wait)
	c.metrics.RecordRateLimitWait(ctx, wait)
	return c.sleep(ctx, wait)
}

func (c *Client) fetchOnce(ctx context.Context, rl *RateLimitState, pageURL string) (*Page, error) {
	resp, err := c.http.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, c.classify(rl, pageURL, err)
	}

	rl.Update(resp.Header, c.now())

	page, err := parsePage(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: ErrServer, StatusCode: resp.StatusCode, URL: pageURL, Err: err}
	}
	return page, nil
}

func (c *Client) classify(rl *RateLimitState, pageURL string, err error) error {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		kind := ErrNetwork
		// The token source failed before the request was sent
		if errors.Is(err, ErrAuth) {
			kind = ErrAuth
		}
		return &RequestError{Kind: kind, URL: pageURL, Err: err}
	}

	reqErr := &RequestError{StatusCode: httpErr.StatusCode, URL: pageURL, Err: err}
	switch {
	case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
		reqErr.Kind = ErrAuth
	case httpErr.StatusCode == http.StatusTooManyRequests:
		rl.Exhaust(httpErr.Header, c.now(), c.baseDelay)
		reqErr.Kind = ErrRateLimited
	case httpErr.StatusCode == http.StatusRequestTimeout || httpErr.StatusCode >= http.StatusInternalServerError:
		rl.Update(httpErr.Header, c.now())
		reqErr.Kind = ErrServer
	default:
		rl.Update(httpErr.Header, c.now())
		reqErr.Kind = ErrRejected
	}
	return reqErr
}

// parsePage reads {result: [...], metadata|pagination: {totalPages, totalCount}}
func parsePage(body []byte) (*Page, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response body is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	result := root.Get("result")
	if result.Exists() && result.Type != gjson.Null && !result.IsArray() {
		return nil, fmt.Errorf("response field result is not an array")
	}

	page := &Page{}
	for _, item := range result.Array() {
		page.Records = append(page.Records, json.RawMessage(item.Raw))
	}

	for _, path := range []string{"metadata.totalPages", "pagination.totalPages"} {
		if v := root.Get(path); v.Exists() {
			page.TotalPages = int(v.Int())
			break
		}
	}
	for _, path := range []string{"metadata.totalCount", "pagination.totalCount"} {
		if v := root.Get(path); v.Exists() {
			page.TotalCount = int(v.Int())
			break
		}
	}
	return page, nil
}
