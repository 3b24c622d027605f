package ynab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBudgetID  = "5c9d2a3f-7b1e-4a8c-9f3d-1e2b3c4d5e6f"
	testAccountID = "a1b2c3d4-e5f6-4a8c-9f3d-0e1b2c3d4e5f"
)

func TestNew_NoToken(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNew_BadSafetyMargin(t *testing.T) {
	_, err := New(WithAccessToken("token"), WithSafetyMargin(1.5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClient_StatsZeroWhenDisabled(t *testing.T) {
	c, err := New(
		WithAccessToken("token"),
		WithoutRateLimiting(),
		WithoutCaching(),
	)
	require.NoError(t, err)

	assert.Zero(t, c.RateLimitStats())
	assert.Zero(t, c.CacheStats())
	c.ClearCache() // must not panic with caching off
}

func TestClient_User(t *testing.T) {
	api := &mockAPI{
		getFunc: jsonResponse(`{"user": {"id": "11111111-2222-4333-8444-555555555555"}}`),
	}
	c := newTestClient(api)

	user, err := c.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-4333-8444-555555555555", user.ID.String())
}

func TestClient_Budgets(t *testing.T) {
	api := &mockAPI{
		getFunc: jsonResponse(fmt.Sprintf(`{"budgets": [
			{"id": %q, "name": "Household", "first_month": "2024-01-01", "last_month": "2024-06-01"},
			{"id": "6d8e3b4a-8c2f-4b9d-8a4e-2f3c4d5e6f7a", "name": "Business", "first_month": "2024-01-01", "last_month": "2024-06-01"}
		]}`, testBudgetID)),
	}
	c := newTestClient(api)

	budgets, err := c.Budgets(context.Background())
	require.NoError(t, err)
	require.Len(t, budgets, 2)

	household, ok := budgets[testBudgetID]
	require.True(t, ok)
	assert.Equal(t, "Household", household.Name)
	assert.Equal(t, "2024-01-01", household.FirstMonth.Time.Format("2006-01-02"))
}

func TestClient_BudgetsIncludeAccounts(t *testing.T) {
	var gotQuery string
	api := &mockAPI{}
	api.getFunc = func(_ context.Context, _ string, query url.Values) ([]byte, error) {
		gotQuery = query["include_accounts"][0]
		return []byte(fmt.Sprintf(`{"budgets": [
			{"id": %q, "name": "Household",
			 "accounts": [{"id": %q, "name": "Checking", "type": "checking", "on_budget": true, "balance": 100000}]}
		]}`, testBudgetID, testAccountID)), nil
	}
	c := newTestClient(api)

	budgets, err := c.Budgets(context.Background(), IncludeAccounts())
	require.NoError(t, err)
	assert.Equal(t, "true", gotQuery)

	// The embedded accounts resolve the memo; no further call happens.
	accounts, err := budgets[testBudgetID].Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, 1, api.countCalls("GET"))
}

func TestClient_BudgetRequiresID(t *testing.T) {
	c := newTestClient(&mockAPI{})
	_, err := c.Budget(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClient_ServerKnowledge(t *testing.T) {
	api := &mockAPI{
		getFunc: jsonResponse(fmt.Sprintf(
			`{"budget": {"id": %q, "name": "Household"}, "server_knowledge": 1742}`, testBudgetID)),
	}
	c := newTestClient(api)
	c.trackKnowledge = true

	_, err := c.Budget(context.Background(), uuid.MustParse(testBudgetID))
	require.NoError(t, err)
	assert.EqualValues(t, 1742, c.ServerKnowledge("get_budget"))
	assert.Zero(t, c.ServerKnowledge("get_accounts"))

	// With delta sync off the value is never recorded.
	off := newTestClient(api)
	_, err = off.Budget(context.Background(), uuid.MustParse(testBudgetID))
	require.NoError(t, err)
	assert.Zero(t, off.ServerKnowledge("get_budget"))
}

// fakeAPI runs a chi router that mimics the API's envelope and counts
// hits per route.
func fakeAPI(t *testing.T) (*httptest.Server, map[string]*int) {
	t.Helper()
	hits := map[string]*int{
		"accounts":     new(int),
		"transactions": new(int),
	}

	r := chi.NewRouter()
	r.Get("/budgets/{budgetID}/accounts", func(w http.ResponseWriter, _ *http.Request) {
		*hits["accounts"]++
		fmt.Fprintf(w, `{"data": {"accounts": [
			{"id": %q, "name": "Checking", "type": "checking", "on_budget": true, "balance": 250000},
			{"id": "b2c3d4e5-f6a7-4b9c-8d3e-1f2a3b4c5d6e", "name": "Savings", "type": "savings", "on_budget": true, "balance": 1000000}
		], "server_knowledge": 10}}`, testAccountID)
	})
	r.Get("/budgets/{budgetID}/accounts/{accountID}/transactions", func(w http.ResponseWriter, _ *http.Request) {
		*hits["transactions"]++
		fmt.Fprint(w, `{"data": {"transactions": [
			{"id": "t-1", "date": "2024-03-05", "amount": -42500, "account_name": "Checking", "payee_name": "Grocery Store", "cleared": "cleared", "approved": true},
			{"id": "t-2", "date": "2024-03-07", "amount": -12000, "account_name": "Checking", "payee_name": "Coffee", "cleared": "uncleared", "approved": false}
		]}}`)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestClient_LazyGraphEndToEnd(t *testing.T) {
	srv, hits := fakeAPI(t)

	c, err := New(
		WithAccessToken("token"),
		WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	budget := &Budget{ID: uuid.MustParse(testBudgetID), Name: "Household", client: c}
	ctx := context.Background()

	accounts, err := budget.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	checking, ok, err := accounts.ByName("Checking")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 250000, checking.Balance)

	transactions, err := checking.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	// Memoized accesses stay local.
	_, err = budget.Accounts(ctx)
	require.NoError(t, err)
	_, err = checking.Transactions(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, *hits["accounts"])
	assert.Equal(t, 1, *hits["transactions"])

	// A fresh budget object has no memos yet but finds the cached
	// response, so the server still sees no new request.
	fresh := &Budget{ID: uuid.MustParse(testBudgetID), Name: "Household", client: c}
	_, err = fresh.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, *hits["accounts"])

	stats := c.RateLimitStats()
	assert.Equal(t, 2, stats.RequestsUsed) // the cache hit skipped the limiter

	cacheStats := c.CacheStats()
	assert.EqualValues(t, 1, cacheStats.Hits)
	assert.Equal(t, 2, cacheStats.Size)
}
