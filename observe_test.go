package ynab

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PrometheusRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(WithAccessToken("token"), WithPrometheus(reg))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["ynab_client_cache_entries"])
	assert.True(t, names["ynab_client_rate_limit_max"])
	assert.True(t, names["ynab_client_requests_remaining"])
}

func TestObserver_NilSafe(t *testing.T) {
	api := &mockAPI{getFunc: jsonResponse(`{"accounts": []}`)}
	b := newTestBudget(api)
	b.client.obs = nil // metrics and logging both absent

	_, err := b.Accounts(context.Background())
	require.NoError(t, err)
}
