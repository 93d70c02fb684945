package fne

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prodestic/fne-sdk-go/internal/auth"
	"github.com/prodestic/fne-sdk-go/internal/metrics"
	"github.com/prodestic/fne-sdk-go/internal/service"
	"github.com/prodestic/fne-sdk-go/internal/transport"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

// ErrMissingBaseURL is returned when production mode is requested without
// the production URL
var ErrMissingBaseURL = errors.New("fne: production mode requires a base URL")

// Config holds client settings. Zero Timeout, ConnectTimeout and
// RetryAttempts take the transport defaults.
type Config struct {
	APIKey         string
	BaseURL        string // ignored in test mode
	TestMode       bool
	Timeout        time.Duration
	ConnectTimeout time.Duration
	RetryAttempts  int
}

// DefaultConfig returns the test environment settings
func DefaultConfig() Config {
	return Config{
		BaseURL:        TestBaseURL,
		TestMode:       true,
		Timeout:        transport.DefaultTimeout,
		ConnectTimeout: transport.DefaultConnectTimeout,
		RetryAttempts:  transport.DefaultRetryAttempts,
	}
}

// Info describes the active configuration
type Info struct {
	TestMode       bool          `json:"test_mode"`
	BaseURL        string        `json:"base_url"`
	Timeout        time.Duration `json:"timeout"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	RetryAttempts  int           `json:"retry_attempts"`
	HasAPIKey      bool          `json:"has_api_key"`
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used by the transport and services
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records transport metrics
func WithMetrics(m *metrics.Transport) Option {
	return func(c *Client) {
		c.extra = append(c.extra, transport.WithMetrics(m))
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.extra = append(c.extra, transport.WithHTTPClient(hc))
	}
}

// WithBackoffUnit sets the first delay between connection retries
func WithBackoffUnit(unit time.Duration) Option {
	return func(c *Client) {
		c.extra = append(c.extra, transport.WithBackoffUnit(unit))
	}
}

// Client is the entry point of the SDK. It is safe for concurrent use;
// mode switches replace the services atomically.
type Client struct {
	tokens    *auth.TokenManager
	validator *validator.InvoiceValidator
	logger    zerolog.Logger
	extra     []transport.ClientOption

	mu        sync.RWMutex
	cfg       Config
	transport *transport.Client
	invoices  *service.InvoiceService
	purchases *service.PurchaseService
	refunds   *service.RefundService
}

// New creates a client. An empty BaseURL outside test mode is an error.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = transport.DefaultTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = transport.DefaultRetryAttempts
	}
	if cfg.TestMode {
		cfg.BaseURL = TestBaseURL
	} else if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	c := &Client{
		tokens:    auth.NewTokenManager(cfg.APIKey),
		validator: validator.NewInvoiceValidator(),
		logger:    zerolog.Nop(),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rebuild()
	return c, nil
}

// NewTest creates a client for the test environment
func NewTest(apiKey string, opts ...Option) *Client {
	c, _ := New(Config{APIKey: apiKey, TestMode: true}, opts...)
	return c
}

// NewProduction creates a client for the production environment
func NewProduction(apiKey, baseURL string, opts ...Option) (*Client, error) {
	return New(Config{APIKey: apiKey, BaseURL: baseURL}, opts...)
}

// rebuild replaces the transport and services. c.mu must not be held.
func (c *Client) rebuild() {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := append([]transport.ClientOption{
		transport.WithBaseURL(c.cfg.BaseURL),
		transport.WithTimeout(c.cfg.Timeout),
		transport.WithConnectTimeout(c.cfg.ConnectTimeout),
		transport.WithRetryAttempts(c.cfg.RetryAttempts),
		transport.WithTokenSource(c.tokens),
		transport.WithLogger(c.logger.With().Str("component", "transport").Logger()),
	}, c.extra...)
	c.transport = transport.NewClient(opts...)

	svcOpts := []service.Option{service.WithLogger(c.logger), service.WithValidator(c.validator)}
	c.invoices = service.NewInvoiceService(c.transport, svcOpts...)
	c.purchases = service.NewPurchaseService(c.transport, svcOpts...)
	c.refunds = service.NewRefundService(c.transport, svcOpts...)

	c.logger.Debug().
		Bool("test_mode", c.cfg.TestMode).
		Str("base_url", c.cfg.BaseURL).
		Msg("client configured")
}

// SetAPIKey replaces the key used by every service and clears the cache
func (c *Client) SetAPIKey(apiKey string) *Client {
	c.tokens.SetAPIKey(apiKey)
	return c
}

// ValidateConfiguration checks the API key locally. It returns an
// *AuthenticationError when the key is missing or too short.
func (c *Client) ValidateConfiguration() error {
	return c.tokens.ValidateAPIKey()
}

func (c *Client) Invoices() *InvoiceService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invoices
}

func (c *Client) Purchases() *PurchaseService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.purchases
}

func (c *Client) Refunds() *RefundService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refunds
}

// EnableTestMode points the client at the test environment
func (c *Client) EnableTestMode() *Client {
	c.mu.Lock()
	c.cfg.TestMode = true
	c.cfg.BaseURL = TestBaseURL
	c.mu.Unlock()

	c.rebuild()
	return c
}

// EnableProductionMode points the client at productionURL
func (c *Client) EnableProductionMode(productionURL string) error {
	if strings.TrimSpace(productionURL) == "" {
		return ErrMissingBaseURL
	}

	c.mu.Lock()
	c.cfg.TestMode = false
	c.cfg.BaseURL = productionURL
	c.mu.Unlock()

	c.rebuild()
	return nil
}

func (c *Client) IsTestMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.TestMode
}

// Info returns the active configuration
func (c *Client) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		TestMode:       c.cfg.TestMode,
		BaseURL:        c.transport.BaseURL(),
		Timeout:        c.cfg.Timeout,
		ConnectTimeout: c.transport.ConnectTimeout(),
		RetryAttempts:  c.transport.RetryAttempts(),
		HasAPIKey:      c.tokens.HasAPIKey(),
	}
}

// CacheResponse keeps data for ttl; the cache is dropped on key change
func (c *Client) CacheResponse(key string, data map[string]any, ttl time.Duration) {
	c.tokens.CacheResponse(key, data, ttl)
}

func (c *Client) CachedResponse(key string) (map[string]any, bool) {
	return c.tokens.CachedResponse(key)
}

// ClearCache removes the given keys, or every entry when none is given
func (c *Client) ClearCache(keys ...string) *Client {
	c.tokens.ClearCache(keys...)
	return c
}
