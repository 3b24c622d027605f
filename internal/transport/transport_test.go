package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ynab/internal/ratelimit"
	"github.com/ledgerline/ynab/internal/respcache"
)

func writeData(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": data}))
}

func writeError(w http.ResponseWriter, status int, id, name, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"id": id, "name": name, "detail": detail},
	})
}

func TestGet_UnwrapsEnvelopeAndSendsAuth(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		writeData(t, w, map[string]any{"user": map[string]string{"id": "u-1"}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "secret-token"})
	payload, err := c.Get(context.Background(), UserPath(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":{"id":"u-1"}}`, string(payload))
}

func TestGet_QueryParameters(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/budgets/{budgetID}/transactions", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "2026-01-01", req.URL.Query().Get("since_date"))
		writeData(t, w, map[string]any{"transactions": []any{}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	_, err := c.Get(context.Background(), TransactionsPath("b-1"),
		url.Values{"since_date": {"2026-01-01"}})
	require.NoError(t, err)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, ErrValidation},
		{"unauthorized", http.StatusUnauthorized, ErrAuthentication},
		{"forbidden", http.StatusForbidden, ErrAuthorization},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"too many requests", http.StatusTooManyRequests, ratelimit.ErrLimited},
		{"server error", http.StatusInternalServerError, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
				writeError(w, tt.status, "err-1", "some_error", "something went wrong")
			})
			srv := httptest.NewServer(r)
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
			_, err := c.Get(context.Background(), UserPath(), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "some_error", apiErr.Name)
			assert.Equal(t, "something went wrong", apiErr.Detail)
		})
	}
}

func TestErrorMapping_RetryAfter(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Retry-After", "120")
		writeError(w, http.StatusTooManyRequests, "429", "too_many_requests", "slow down")
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	_, err := c.Get(context.Background(), UserPath(), nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 2*time.Minute, apiErr.RetryAfter)
}

func TestErrorMapping_UnparsableBody(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	_, err := c.Get(context.Background(), UserPath(), nil)
	require.ErrorIs(t, err, ErrServer)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Detail)
}

func TestGet_NetworkError(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", AccessToken: "t"})
	_, err := c.Get(context.Background(), UserPath(), nil)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestGet_MalformedEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected": true}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	_, err := c.Get(context.Background(), UserPath(), nil)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestGet_UsesCache(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/budgets", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		writeData(t, w, map[string]any{"budgets": []any{}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{
		BaseURL:     srv.URL,
		AccessToken: "t",
		Cache:       respcache.New(10, time.Minute),
	})

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), BudgetsPath(), nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load(), "repeated identical GETs should hit the cache")
}

func TestGet_CacheHitSkipsRateLimiter(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/budgets", func(w http.ResponseWriter, req *http.Request) {
		writeData(t, w, map[string]any{"budgets": []any{}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	limiter := ratelimit.New(1, time.Hour, ratelimit.FailFast())
	c := New(Config{
		BaseURL:     srv.URL,
		AccessToken: "t",
		Limiter:     limiter,
		Cache:       respcache.New(10, time.Minute),
	})

	_, err := c.Get(context.Background(), BudgetsPath(), nil)
	require.NoError(t, err)

	// Quota is exhausted, but the cached read must not need it.
	_, err = c.Get(context.Background(), BudgetsPath(), nil)
	require.NoError(t, err)

	// An uncached path does need quota and fails fast.
	_, err = c.Get(context.Background(), UserPath(), nil)
	assert.ErrorIs(t, err, ratelimit.ErrLimited)
}

func TestMutation_InvalidatesBudgetScope(t *testing.T) {
	var listCalls atomic.Int32
	r := chi.NewRouter()
	r.Get("/budgets/{budgetID}/transactions", func(w http.ResponseWriter, req *http.Request) {
		listCalls.Add(1)
		writeData(t, w, map[string]any{"transactions": []any{}})
	})
	r.Post("/budgets/{budgetID}/transactions", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusCreated)
		writeData(t, w, map[string]any{"transaction": map[string]any{}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{
		BaseURL:     srv.URL,
		AccessToken: "t",
		Cache:       respcache.New(10, time.Minute),
	})
	ctx := context.Background()

	_, err := c.Get(ctx, TransactionsPath("b-1"), nil)
	require.NoError(t, err)
	_, err = c.Get(ctx, TransactionsPath("b-1"), nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), listCalls.Load())

	_, err = c.Post(ctx, TransactionsPath("b-1"), map[string]any{"transaction": map[string]any{}})
	require.NoError(t, err)

	_, err = c.Get(ctx, TransactionsPath("b-1"), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listCalls.Load(), "mutation should invalidate the cached list")
}

func TestMutation_SendsBody(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/budgets/{budgetID}/transactions/{txnID}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Contains(t, body, "transaction")
		writeData(t, w, map[string]any{"transaction": map[string]any{}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	_, err := c.Put(context.Background(), TransactionPath("b-1", "t-1"),
		map[string]any{"transaction": map[string]any{"memo": "updated"}})
	require.NoError(t, err)
}

func TestRequestsRemaining_FromHeader(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("X-Rate-Limit", "36/200")
		writeData(t, w, map[string]any{"user": map[string]string{"id": "u-1"}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	_, err := c.Get(context.Background(), UserPath(), nil)
	require.NoError(t, err)
	assert.Equal(t, 164, c.RequestsRemaining())
}

func TestRequestsRemaining_HeaderlessResponses(t *testing.T) {
	sendHeader := false
	r := chi.NewRouter()
	r.Get("/user", func(w http.ResponseWriter, req *http.Request) {
		if sendHeader {
			w.Header().Set("X-Rate-Limit", "36/200")
		}
		writeData(t, w, map[string]any{"user": map[string]string{"id": "u-1"}})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AccessToken: "t"})
	ctx := context.Background()

	// Before any header arrives the quota is unknown and stays at zero
	// rather than being counted down from nothing.
	_, err := c.Get(ctx, UserPath(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.RequestsRemaining())

	sendHeader = true
	_, err = c.Get(ctx, UserPath(), nil)
	require.NoError(t, err)
	require.Equal(t, 164, c.RequestsRemaining())

	// Once seeded, a headerless success still counts against the quota.
	sendHeader = false
	_, err = c.Get(ctx, UserPath(), nil)
	require.NoError(t, err)
	assert.Equal(t, 163, c.RequestsRemaining())
}
