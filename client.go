package ynab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ynab/internal/ratelimit"
	"github.com/ledgerline/ynab/internal/respcache"
	"github.com/ledgerline/ynab/internal/transport"
)

const version = "0.3.0"

// apiClient is the transport surface the resource graph talks to. It is
// satisfied by *transport.Client and by test doubles.
type apiClient interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Put(ctx context.Context, path string, body any) ([]byte, error)
	Patch(ctx context.Context, path string, body any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
	RequestsRemaining() int
}

// Client is the entry point into the YNAB API. It owns the rate limiter,
// the response cache and the observability hooks shared by every resource
// reachable from it.
type Client struct {
	api     apiClient
	limiter *ratelimit.Limiter
	cache   *respcache.Cache
	obs     *observer

	mu             sync.Mutex
	knowledge      map[string]int64
	trackKnowledge bool
}

// New builds a Client. An access token is required; everything else has
// sensible defaults that the options can override.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{
		baseURL:      DefaultBaseURL,
		rateLimiting: true,
		maxRequests:  DefaultMaxRequests,
		window:       DefaultWindow,
		safetyMargin: DefaultSafetyMargin,
		caching:      true,
		cacheTTL:     DefaultCacheTTL,
		cacheMaxSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrValidation)
	}
	if cfg.safetyMargin <= 0 || cfg.safetyMargin > 1 {
		return nil, fmt.Errorf("%w: safety margin must be in (0, 1], got %v", ErrValidation, cfg.safetyMargin)
	}

	c := &Client{
		knowledge:      make(map[string]int64),
		trackKnowledge: cfg.deltaSync,
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	c.obs = obs

	if cfg.rateLimiting {
		effective := int(float64(cfg.maxRequests) * cfg.safetyMargin)
		if effective < 1 {
			effective = 1
		}
		limiterOpts := []ratelimit.Option{ratelimit.WithLogger(cfg.logger)}
		if cfg.failFast {
			limiterOpts = append(limiterOpts, ratelimit.FailFast())
		}
		c.limiter = ratelimit.New(effective, cfg.window, limiterOpts...)
	}
	if cfg.caching {
		c.cache = respcache.New(cfg.cacheMaxSize, cfg.cacheTTL, respcache.WithLogger(cfg.logger))
	}

	c.api = transport.New(transport.Config{
		BaseURL:     cfg.baseURL,
		AccessToken: cfg.accessToken,
		HTTPClient:  cfg.httpClient,
		Limiter:     c.limiter,
		Cache:       c.cache,
		Logger:      cfg.logger,
		UserAgent:   "ledgerline-ynab/" + version,
	})

	if cfg.metricsReg != nil {
		if err := cfg.metricsReg.Register(newStatsCollector(c)); err != nil {
			return nil, fmt.Errorf("register stats collector: %w", err)
		}
	}
	return c, nil
}

// User fetches the authenticated user.
func (c *Client) User(ctx context.Context) (_ *User, err error) {
	start := time.Now()
	defer func() { c.obs.observe("user", start, err) }()

	payload, err := c.api.Get(ctx, transport.UserPath(), nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		User *User `json:"user"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	return envelope.User, nil
}

// BudgetsOption tweaks a Budgets call.
type BudgetsOption interface {
	applyBudgets(url.Values)
}

type budgetsOptionFunc func(url.Values)

func (f budgetsOptionFunc) applyBudgets(q url.Values) { f(q) }

// IncludeAccounts asks the server to embed each budget's accounts in the
// listing response.
func IncludeAccounts() BudgetsOption {
	return budgetsOptionFunc(func(q url.Values) {
		q.Set("include_accounts", "true")
	})
}

// Budgets lists the budgets the token can see, keyed by budget id.
func (c *Client) Budgets(ctx context.Context, opts ...BudgetsOption) (_ Collection[*Budget], err error) {
	start := time.Now()
	defer func() { c.obs.observe("budgets", start, err) }()

	query := url.Values{}
	for _, opt := range opts {
		opt.applyBudgets(query)
	}
	if len(query) == 0 {
		query = nil
	}

	payload, err := c.api.Get(ctx, transport.BudgetsPath(), query)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Budgets []json.RawMessage `json:"budgets"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}

	out := make(Collection[*Budget], len(envelope.Budgets))
	for _, raw := range envelope.Budgets {
		b, err := c.parseBudget(raw)
		if err != nil {
			return nil, err
		}
		out[b.ID.String()] = b
	}
	return out, nil
}

// Budget fetches a single budget in full detail. The response embeds every
// collection the budget owns, so the returned Budget resolves its relations
// without further requests until invalidated.
func (c *Client) Budget(ctx context.Context, budgetID uuid.UUID) (_ *Budget, err error) {
	start := time.Now()
	defer func() { c.obs.observe("budget", start, err) }()

	if budgetID == uuid.Nil {
		return nil, fmt.Errorf("%w: budget id is required", ErrValidation)
	}

	payload, err := c.api.Get(ctx, transport.BudgetPath(budgetID.String()), c.knowledgeQuery("get_budget"))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Budget          json.RawMessage `json:"budget"`
		ServerKnowledge int64           `json:"server_knowledge"`
	}
	if err := decode(payload, &envelope); err != nil {
		return nil, err
	}
	c.recordKnowledge("get_budget", envelope.ServerKnowledge)

	b, err := c.parseBudget(envelope.Budget)
	if err != nil {
		return nil, err
	}
	if err := b.populateDetail(envelope.Budget); err != nil {
		return nil, err
	}
	return b, nil
}

// RateLimitStats reports the limiter's current window. The zero value is
// returned when rate limiting is disabled.
func (c *Client) RateLimitStats() ratelimit.Stats {
	if c.limiter == nil {
		return ratelimit.Stats{}
	}
	return c.limiter.Stats()
}

// CacheStats reports cache hit and occupancy counters. The zero value is
// returned when caching is disabled.
func (c *Client) CacheStats() respcache.Stats {
	if c.cache == nil {
		return respcache.Stats{}
	}
	return c.cache.Stats()
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// RequestsRemaining reports the request allowance left in the server's
// current window, as advertised by the most recent response.
func (c *Client) RequestsRemaining() int {
	return c.api.RequestsRemaining()
}

// ServerKnowledge returns the last server knowledge value seen for an
// endpoint, or zero when none was recorded.
func (c *Client) ServerKnowledge(endpoint string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.knowledge[endpoint]
}

func (c *Client) recordKnowledge(endpoint string, value int64) {
	if !c.trackKnowledge || value == 0 {
		return
	}
	c.mu.Lock()
	c.knowledge[endpoint] = value
	c.mu.Unlock()
}

// knowledgeQuery builds the delta sync query for an endpoint, or nil when
// delta sync is off or nothing has been recorded yet.
func (c *Client) knowledgeQuery(endpoint string) url.Values {
	if !c.trackKnowledge {
		return nil
	}
	c.mu.Lock()
	known := c.knowledge[endpoint]
	c.mu.Unlock()
	if known == 0 {
		return nil
	}
	return url.Values{"last_knowledge_of_server": {fmt.Sprint(known)}}
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrNetwork, err)
	}
	return nil
}
