// Package learningapi implements the client for the external adaptive learning
// (spaced repetition) service: students, knowledge node links, events and
// pending reviews of one service instance.
package learningapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/pkg/circuitbreaker"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
	"github.com/alem-hub/adaptive-learning/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the adaptive learning client.
type ClientConfig struct {
	// Configuration holds the per-course service settings.
	Configuration adaptive.Configuration

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RequestsPerSecond and Burst bound the outgoing request rate.
	// Zero RequestsPerSecond disables limiting.
	RequestsPerSecond float64
	Burst             int

	// MaxAttempts for idempotent GET requests. POSTs are sent once.
	MaxAttempts       int
	RetryInitialDelay time.Duration

	BreakerFailureThreshold int
	BreakerTimeout          time.Duration

	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(cfg adaptive.Configuration) ClientConfig {
	return ClientConfig{
		Configuration:           cfg,
		Timeout:                 10 * time.Second,
		RequestsPerSecond:       20,
		Burst:                   5,
		MaxAttempts:             3,
		RetryInitialDelay:       200 * time.Millisecond,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
	}
}

// Recorder receives one observation per finished remote call.
type Recorder interface {
	ObserveRemoteCall(stage, outcome string, d time.Duration)
}

// Locker serializes get-or-create for one natural key across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLocker makes get-or-create hold a lock on the natural key.
func WithLocker(l Locker) Option {
	return func(c *Client) { c.locker = l }
}

// WithCircuitBreaker shares a breaker between clients of the same service.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) {
		if cb != nil {
			c.breaker = cb
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to one instance of the adaptive learning service.
type Client struct {
	config     ClientConfig
	endpoints  adaptive.Endpoints
	httpClient *http.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	retrier    *retry.Retrier
	recorder   Recorder
	locker     Locker
}

// NewClient creates a new adaptive learning client.
func NewClient(config ClientConfig, opts ...Option) (*Client, error) {
	if config.Configuration.IsZero() {
		return nil, errors.New("learningapi: configuration is required")
	}
	defaults := DefaultClientConfig(config.Configuration)
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.RetryInitialDelay <= 0 {
		config.RetryInitialDelay = defaults.RetryInitialDelay
	}
	if config.BreakerFailureThreshold <= 0 {
		config.BreakerFailureThreshold = defaults.BreakerFailureThreshold
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = defaults.BreakerTimeout
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	log := config.Logger.With(logger.Component("learningapi"))
	c := &Client{
		config:     config,
		endpoints:  config.Configuration.Endpoints(),
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     log,
		limiter:    rate.NewLimiter(limit, burst),
		retrier: retry.New(
			retry.WithMaxAttempts(config.MaxAttempts),
			retry.WithInitialDelay(config.RetryInitialDelay),
			retry.WithMaxDelay(5*time.Second),
			retry.WithJitter(0.2),
			retry.WithRetryIf(isTransient),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("retrying adaptive learning request",
					logger.Int("attempt", attempt), logger.Err(err), logger.Duration("delay", delay))
			}),
		),
	}
	c.breaker = NewBreaker("adaptive-learning", config.BreakerFailureThreshold, config.BreakerTimeout, log)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Configuration returns the settings this client was built from.
func (c *Client) Configuration() adaptive.Configuration {
	return c.config.Configuration
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP HELPERS
// ══════════════════════════════════════════════════════════════════════════════

type request struct {
	stage  Stage
	method string
	url    string
	query  url.Values
	form   url.Values
}

// doRequest runs one logical call: circuit breaker, then retries for GETs,
// then rate limiting per attempt. result may be nil.
func (c *Client) doRequest(ctx context.Context, req request, result any) error {
	start := time.Now()

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		if req.method != http.MethodGet {
			return c.doSingleRequest(ctx, req, result)
		}
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSingleRequest(ctx, req, result)
		})
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		err = c.remoteError(req, 0, err)
	}

	c.observe(req.stage, err, time.Since(start))
	if err != nil {
		c.logger.Debug("adaptive learning request failed",
			logger.Stage(string(req.stage)), logger.String("method", req.method), logger.Err(err))
	}
	return err
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, req request, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.remoteError(req, 0, fmt.Errorf("rate limiter: %w", err))
	}

	fullURL := req.url
	if len(req.query) > 0 {
		fullURL += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, body)
	if err != nil {
		return c.remoteError(req, 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Authorization", c.config.Configuration.AuthorizationHeader())
	httpReq.Header.Set("Accept", "application/json")
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.remoteError(req, 0, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return c.remoteError(req, 0, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(req, resp.StatusCode, fmt.Errorf("unexpected response: %s", snippet(respBody)))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return c.remoteError(req, 0, fmt.Errorf("%w: %v", errDecode, err))
		}
	}
	return nil
}

func (c *Client) remoteError(req request, status int, err error) *RemoteServiceError {
	return &RemoteServiceError{
		Stage:      req.stage,
		Method:     req.method,
		URL:        req.url,
		StatusCode: status,
		Err:        err,
	}
}

func (c *Client) observe(stage Stage, err error, d time.Duration) {
	if c.recorder == nil {
		return
	}
	outcome := "ok"
	var re *RemoteServiceError
	switch {
	case err == nil:
	case errors.As(err, &re) && re.StatusCode != 0:
		outcome = fmt.Sprintf("status_%d", re.StatusCode)
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		outcome = "circuit_open"
	case errors.Is(err, errDecode):
		outcome = "decode_error"
	default:
		outcome = "transport_error"
	}
	c.recorder.ObserveRemoteCall(string(stage), outcome, d)
}

// lock takes the optional distributed lock. Failing to lock only costs the
// duplicate protection, so it is logged and the call goes ahead.
func (c *Client) lock(ctx context.Context, parts ...string) func() {
	if c.locker == nil {
		return func() {}
	}
	key := c.endpoints.Instance + "|" + strings.Join(parts, "|")
	unlock, err := c.locker.Lock(ctx, key)
	if err != nil {
		c.logger.Warn("get-or-create lock unavailable", logger.String("key", key), logger.Err(err))
		return func() {}
	}
	return func() {
		// the caller's context may already be cancelled
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("release get-or-create lock", logger.String("key", key), logger.Err(err))
		}
	}
}

// isTransient ignores the caller's context; the retrier checks it between attempts.
func isTransient(err error) bool {
	var re *RemoteServiceError
	return errors.As(err, &re) && re.transient()
}

func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var re *RemoteServiceError
	if errors.As(err, &re) {
		// client errors say nothing about service health
		return re.StatusCode == 0 || re.StatusCode >= 500 || re.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
