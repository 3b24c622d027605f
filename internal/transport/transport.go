// Package transport performs the HTTP calls against the YNAB API, applying
// the client-side rate limiter and the response cache around every request.
//
// Only idempotent GETs consult or populate the cache. Mutating verbs skip
// it entirely and invalidate the budget-scoped entries they made stale.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ledgerline/ynab/internal/ratelimit"
	"github.com/ledgerline/ynab/internal/respcache"
)

const defaultTimeout = 30 * time.Second

// Config assembles a transport Client.
type Config struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client       // nil for a default with a 30s timeout
	Limiter     *ratelimit.Limiter // nil disables rate limiting
	Cache       *respcache.Cache   // nil disables caching
	Logger      *slog.Logger       // nil disables logging
	UserAgent   string
}

// Client is the API transport. It returns the raw JSON inside the API's
// {"data": ...} envelope; schema decoding belongs to the caller.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	limiter   *ratelimit.Limiter
	cache     *respcache.Cache
	logger    *slog.Logger
	userAgent string

	mu         sync.Mutex
	remaining  int  // per-token requests remaining, from X-Rate-Limit
	quotaKnown bool // set once a response has carried the header
}

// New creates a transport client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		token:     cfg.AccessToken,
		http:      hc,
		limiter:   cfg.Limiter,
		cache:     cfg.Cache,
		logger:    cfg.Logger,
		userAgent: cfg.UserAgent,
	}
}

// Get performs a cacheable read. A fresh cached payload is returned
// without consuming rate-limit quota; a miss acquires quota, performs the
// call and stores the payload.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := respcache.Key(http.MethodGet, path, query)
	if c.cache != nil {
		if payload, ok := c.cache.Get(key); ok {
			if c.logger != nil {
				c.logger.Debug("cache hit", "key", key)
			}
			return payload, nil
		}
	}

	payload, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(key, payload)
	}
	return payload, nil
}

// Post performs a create. The response payload is returned and the
// affected budget's cached reads are invalidated.
func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.mutate(ctx, http.MethodPost, path, body)
}

// Put performs a full update.
func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.mutate(ctx, http.MethodPut, path, body)
}

// Patch performs a partial update.
func (c *Client) Patch(ctx context.Context, path string, body any) ([]byte, error) {
	return c.mutate(ctx, http.MethodPatch, path, body)
}

// Delete performs a remote deletion. The API echoes the deleted resource.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.mutate(ctx, http.MethodDelete, path, nil)
}

// RequestsRemaining reports the per-token quota remaining as last seen in
// the X-Rate-Limit response header.
func (c *Client) RequestsRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) ([]byte, error) {
	payload, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return nil, err
	}
	c.invalidateFor(path)
	return payload, nil
}

// invalidateFor drops cached reads made stale by a mutation under path.
// Granularity is the owning budget: any write below /budgets/<id> clears
// that budget's whole cached subtree plus the budget list.
func (c *Client) invalidateFor(path string) {
	if c.cache == nil {
		return
	}
	if rest, ok := strings.CutPrefix(path, "/budgets/"); ok {
		budgetID, _, _ := strings.Cut(rest, "/")
		c.cache.DeletePrefix(respcache.Key(http.MethodGet, "/budgets/"+budgetID, nil))
	}
	c.cache.Delete(respcache.Key(http.MethodGet, BudgetsPath(), nil))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.logger != nil {
		c.logger.Debug("api request", "method", method, "url", u)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	c.updateRemaining(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.errorFrom(resp, raw)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil {
		return nil, fmt.Errorf("%w: malformed response envelope for %s %s", ErrNetwork, method, path)
	}
	return envelope.Data, nil
}

// updateRemaining tracks the per-token quota from the X-Rate-Limit header
// ("used/total"). Once a header has seeded the counter, a headerless
// success still consumed one request, so the counter is decremented. Until
// then the quota is unknown and stays untouched.
func (c *Client) updateRemaining(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	header := resp.Header.Get("X-Rate-Limit")
	usedStr, totalStr, ok := strings.Cut(header, "/")
	if ok {
		used, err1 := strconv.Atoi(strings.TrimSpace(usedStr))
		total, err2 := strconv.Atoi(strings.TrimSpace(totalStr))
		if err1 == nil && err2 == nil {
			c.remaining = total - used
			c.quotaKnown = true
			return
		}
	}
	if c.quotaKnown && c.remaining > 0 {
		c.remaining--
	}
}

func (c *Client) errorFrom(resp *http.Response, raw []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Detail string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Detail != "" {
		apiErr.ID = body.Error.ID
		apiErr.Name = body.Error.Name
		apiErr.Detail = body.Error.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(raw))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if after, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(after) * time.Second
		}
	}

	if c.logger != nil {
		c.logger.Warn("api error response",
			"status", resp.StatusCode, "name", apiErr.Name, "detail", apiErr.Detail)
	}
	return apiErr
}
