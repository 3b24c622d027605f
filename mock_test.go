package ynab

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// mockAPI implements apiClient with overridable functions and records
// every call it serves.
type mockAPI struct {
	getFunc    func(ctx context.Context, path string, query url.Values) ([]byte, error)
	postFunc   func(ctx context.Context, path string, body any) ([]byte, error)
	putFunc    func(ctx context.Context, path string, body any) ([]byte, error)
	patchFunc  func(ctx context.Context, path string, body any) ([]byte, error)
	deleteFunc func(ctx context.Context, path string) ([]byte, error)
	remaining  int

	calls []string
}

func (m *mockAPI) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	m.calls = append(m.calls, "GET "+path)
	if m.getFunc == nil {
		return nil, fmt.Errorf("unexpected GET %s", path)
	}
	return m.getFunc(ctx, path, query)
}

func (m *mockAPI) Post(ctx context.Context, path string, body any) ([]byte, error) {
	m.calls = append(m.calls, "POST "+path)
	if m.postFunc == nil {
		return nil, fmt.Errorf("unexpected POST %s", path)
	}
	return m.postFunc(ctx, path, body)
}

func (m *mockAPI) Put(ctx context.Context, path string, body any) ([]byte, error) {
	m.calls = append(m.calls, "PUT "+path)
	if m.putFunc == nil {
		return nil, fmt.Errorf("unexpected PUT %s", path)
	}
	return m.putFunc(ctx, path, body)
}

func (m *mockAPI) Patch(ctx context.Context, path string, body any) ([]byte, error) {
	m.calls = append(m.calls, "PATCH "+path)
	if m.patchFunc == nil {
		return nil, fmt.Errorf("unexpected PATCH %s", path)
	}
	return m.patchFunc(ctx, path, body)
}

func (m *mockAPI) Delete(ctx context.Context, path string) ([]byte, error) {
	m.calls = append(m.calls, "DELETE "+path)
	if m.deleteFunc == nil {
		return nil, fmt.Errorf("unexpected DELETE %s", path)
	}
	return m.deleteFunc(ctx, path)
}

func (m *mockAPI) RequestsRemaining() int { return m.remaining }

// countCalls tallies recorded calls matching a "METHOD /path" prefix.
func (m *mockAPI) countCalls(prefix string) int {
	n := 0
	for _, call := range m.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// newTestClient wires a client around a mock transport, skipping the
// limiter and cache so tests exercise the resource graph alone.
func newTestClient(api *mockAPI) *Client {
	return &Client{
		api:       api,
		obs:       &observer{},
		knowledge: make(map[string]int64),
	}
}

// newTestBudget builds a budget bound to a mock-backed client.
func newTestBudget(api *mockAPI) *Budget {
	return &Budget{
		ID:     uuid.MustParse("5c9d2a3f-7b1e-4a8c-9f3d-1e2b3c4d5e6f"),
		Name:   "Household",
		client: newTestClient(api),
	}
}

// jsonResponse returns a static payload for any GET.
func jsonResponse(payload string) func(context.Context, string, url.Values) ([]byte, error) {
	return func(context.Context, string, url.Values) ([]byte, error) {
		return []byte(payload), nil
	}
}
