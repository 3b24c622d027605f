package ynab

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults sized for the YNAB per-token quota and a read-mostly workload.
const (
	DefaultBaseURL      = "https://api.ynab.com/v1"
	DefaultMaxRequests  = 200
	DefaultWindow       = time.Hour
	DefaultSafetyMargin = 0.9
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheSize    = 500
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client

	rateLimiting bool
	maxRequests  int
	window       time.Duration
	safetyMargin float64
	failFast     bool

	caching      bool
	cacheTTL     time.Duration
	cacheMaxSize int

	deltaSync bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithAccessToken sets the personal access token used for every request.
// Required; create one at https://app.ynab.com/settings/developer.
func WithAccessToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.accessToken = token
	})
}

// WithBaseURL overrides the API base URL. Mainly useful for tests.
func WithBaseURL(baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
	})
}

// WithHTTPClient replaces the underlying HTTP client (timeouts and any
// transport-level retry policy belong there, not in this library).
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithRateLimit sets the quota the limiter protects.
// Defaults: 200 requests per rolling hour.
func WithRateLimit(maxRequests int, window time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRequests = maxRequests
		c.window = window
	})
}

// WithSafetyMargin sets the fraction of the quota actually used, keeping a
// buffer against requests made outside this client. Default: 0.9.
func WithSafetyMargin(margin float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.safetyMargin = margin
	})
}

// WithFailFast makes rate-limited operations return a RateLimitError
// immediately instead of sleeping until capacity frees up (the default).
func WithFailFast() Option {
	return optionFunc(func(c *clientConfig) {
		c.failFast = true
	})
}

// WithoutRateLimiting disables the client-side rate limiter.
func WithoutRateLimiting() Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimiting = false
	})
}

// WithCache sets response-cache freshness and capacity.
// Defaults: TTL 300s, 500 entries.
func WithCache(ttl time.Duration, maxSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
		c.cacheMaxSize = maxSize
	})
}

// WithoutCaching disables the response cache.
func WithoutCaching() Option {
	return optionFunc(func(c *clientConfig) {
		c.caching = false
	})
}

// WithDeltaSync enables per-endpoint server-knowledge tracking for delta
// requests. Disabled by default; ServerKnowledge then always reports 0.
func WithDeltaSync() Option {
	return optionFunc(func(c *clientConfig) {
		c.deltaSync = true
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts, durations,
// cache and rate-limit stats) on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
