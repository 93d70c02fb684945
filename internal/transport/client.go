// Package transport sends requests to the FNE API. Connection failures are
// retried with exponential backoff; any HTTP answer is final and non-2xx
// statuses are classified into model.APIError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/metrics"
	"github.com/prodestic/fne-sdk-go/internal/model"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultRetryAttempts  = 3
	DefaultBackoffUnit    = time.Second
	UserAgent             = "FNE-SDK-Go/1.0"
)

// TokenSource supplies the bearer token attached to every request.
// An empty token sends no Authorization header.
type TokenSource interface {
	BearerToken() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

func (s StaticToken) BearerToken() string { return string(s) }

// Sleeper waits between attempts. It must return early with ctx.Err()
// when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client handles communication with the FNE API
type Client struct {
	baseURL        string
	httpClient     *http.Client
	connectTimeout time.Duration
	retryAttempts  int
	backoffUnit    time.Duration
	sleep          Sleeper
	logger         zerolog.Logger
	metrics        *metrics.Transport
}

// headerTransport wraps an http.RoundTripper to add the JSON, client and
// authorization headers
type headerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if t.tokens != nil {
		if token := t.tokens.BearerToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if t.base != nil {
		return t.base.RoundTrip(req)
	}
	return http.DefaultTransport.RoundTrip(req)
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL        string
	timeout        time.Duration
	connectTimeout time.Duration
	retryAttempts  int
	backoffUnit    time.Duration
	sleep          Sleeper
	tokens         TokenSource
	httpClient     *http.Client
	logger         zerolog.Logger
	metrics        *metrics.Transport
}

// WithBaseURL sets the API root, e.g. http://54.247.95.108/ws
func WithBaseURL(url string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.baseURL = url
	}
}

// WithTimeout sets the overall timeout of one attempt
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithConnectTimeout bounds connection establishment
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.connectTimeout = timeout
	}
}

// WithRetryAttempts sets how many times a request is tried when the
// connection cannot be established. Values below 1 mean a single try.
func WithRetryAttempts(attempts int) ClientOption {
	return func(cfg *clientConfig) {
		cfg.retryAttempts = attempts
	}
}

// WithBackoffUnit sets the base delay; the n-th retry waits unit*2^(n-1)
func WithBackoffUnit(unit time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.backoffUnit = unit
	}
}

// WithSleeper replaces the backoff wait, mainly for tests
func WithSleeper(sleep Sleeper) ClientOption {
	return func(cfg *clientConfig) {
		cfg.sleep = sleep
	}
}

// WithTokenSource sets where the bearer token comes from
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(cfg *clientConfig) {
		cfg.tokens = tokens
	}
}

// WithHTTPClient uses client as the base; its transport and timeout are kept
func WithHTTPClient(client *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

func WithMetrics(m *metrics.Transport) ClientOption {
	return func(cfg *clientConfig) {
		cfg.metrics = m
	}
}

// NewClient creates a transport client
func NewClient(opts ...ClientOption) *Client {
	cfg := &clientConfig{
		baseURL:        model.TestBaseURL,
		timeout:        DefaultTimeout,
		connectTimeout: DefaultConnectTimeout,
		retryAttempts:  DefaultRetryAttempts,
		backoffUnit:    DefaultBackoffUnit,
		sleep:          sleepContext,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.retryAttempts < 1 {
		cfg.retryAttempts = 1
	}
	if cfg.connectTimeout <= 0 {
		cfg.connectTimeout = DefaultConnectTimeout
	}

	var httpClient http.Client
	if cfg.httpClient != nil {
		httpClient = *cfg.httpClient
	} else {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.DialContext = (&net.Dialer{Timeout: cfg.connectTimeout, KeepAlive: 30 * time.Second}).DialContext
		httpClient = http.Client{Transport: base, Timeout: cfg.timeout}
	}
	httpClient.Transport = &headerTransport{base: httpClient.Transport, tokens: cfg.tokens}

	return &Client{
		baseURL:        strings.TrimRight(cfg.baseURL, "/"),
		httpClient:     &httpClient,
		connectTimeout: cfg.connectTimeout,
		retryAttempts:  cfg.retryAttempts,
		backoffUnit:    cfg.backoffUnit,
		sleep:          cfg.sleep,
		logger:         cfg.logger,
		metrics:        cfg.metrics,
	}
}

// BaseURL returns the API root without trailing slash
func (c *Client) BaseURL() string { return c.baseURL }

// ConnectTimeout returns the dial timeout. It does not apply to a client
// given through WithHTTPClient.
func (c *Client) ConnectTimeout() time.Duration { return c.connectTimeout }

// RetryAttempts returns the configured number of tries
func (c *Client) RetryAttempts() int { return c.retryAttempts }

// URL joins endpoint to the base URL and appends query
func (c *Client) URL(endpoint string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Post sends body as JSON
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, body, nil)
}

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, nil, query)
}

// Do performs the request. Returned errors are *model.NetworkError when no
// answer was received and *model.APIError for non-2xx statuses.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, query url.Values) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	target := c.URL(endpoint, query)
	log := c.logger.With().Str("method", method).Str("endpoint", endpoint).Logger()
	start := time.Now()

	for attempt := 1; ; attempt++ {
		c.metrics.Attempt(endpoint)

		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		log.Debug().Int("attempt", attempt).Msg("sending request")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() == nil && isConnectFailure(err) && attempt < c.retryAttempts {
				delay := c.backoff(attempt)
				log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("connection failed, retrying")
				c.metrics.Retry(endpoint)
				if serr := c.sleep(ctx, delay); serr != nil {
					c.metrics.NetworkFailure(endpoint, time.Since(start))
					return nil, model.NewConnectionError(errors.Join(err, serr), attempt)
				}
				continue
			}
			c.metrics.NetworkFailure(endpoint, time.Since(start))
			log.Error().Err(err).Int("attempts", attempt).Msg("request failed")
			return nil, classifyFailure(err, attempt)
		}

		return c.handleResponse(resp, endpoint, start, log)
	}
}

func (c *Client) handleResponse(resp *http.Response, endpoint string, start time.Time, log zerolog.Logger) (*Response, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.NetworkFailure(endpoint, time.Since(start))
		return nil, &model.NetworkError{
			Message:  "Réponse de l'API FNE illisible",
			Attempts: 1,
			Cause:    err,
		}
	}

	c.metrics.Response(endpoint, resp.StatusCode, time.Since(start))
	r := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}

	if r.IsSuccess() {
		log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("request succeeded")
		return r, nil
	}

	apiErr := model.NewAPIError(resp.StatusCode, r.JSON(), data)
	log.Warn().Int("status", resp.StatusCode).Str("kind", string(apiErr.Kind)).Str("message", apiErr.Message).Msg("request rejected")
	return nil, apiErr
}

// backoff returns the wait after the given failed attempt
func (c *Client) backoff(attempt int) time.Duration {
	return c.backoffUnit * time.Duration(1<<(attempt-1))
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

// isConnectFailure reports errors raised before a connection existed:
// DNS resolution, refused or unreachable hosts, connect timeouts.
func isConnectFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

func classifyFailure(err error, attempts int) *model.NetworkError {
	if isConnectFailure(err) {
		return model.NewConnectionError(err, attempts)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.NewTimeoutError(err)
	}
	return &model.NetworkError{
		Message:  "Erreur de communication avec l'API FNE",
		Attempts: attempts,
		Cause:    err,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
