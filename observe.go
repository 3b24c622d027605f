package ynab

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds prometheus metrics registered for the client.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ynab",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Total client operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ynab",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Client operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("ynab: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("ynab: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for client operations.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *clientMetrics
	if reg != nil {
		var err error
		m, err = newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"op", op,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"op", op,
				"duration", dur,
			)
		}
	}
}

// statsCollector exports the client's observability surface (cache and
// rate-limit stats) as prometheus metrics.
type statsCollector struct {
	client *Client

	cacheHits         *prometheus.Desc
	cacheMisses       *prometheus.Desc
	cacheSize         *prometheus.Desc
	rateLimitUsed     *prometheus.Desc
	rateLimitMax      *prometheus.Desc
	requestsRemaining *prometheus.Desc
}

func newStatsCollector(c *Client) *statsCollector {
	return &statsCollector{
		client: c,
		cacheHits: prometheus.NewDesc(
			"ynab_client_cache_hits_total", "Response cache hits.", nil, nil),
		cacheMisses: prometheus.NewDesc(
			"ynab_client_cache_misses_total", "Response cache misses.", nil, nil),
		cacheSize: prometheus.NewDesc(
			"ynab_client_cache_entries", "Current response cache size.", nil, nil),
		rateLimitUsed: prometheus.NewDesc(
			"ynab_client_rate_limit_used", "Requests used in the current rolling window.", nil, nil),
		rateLimitMax: prometheus.NewDesc(
			"ynab_client_rate_limit_max", "Maximum requests per rolling window.", nil, nil),
		requestsRemaining: prometheus.NewDesc(
			"ynab_client_requests_remaining", "Per-token requests remaining as reported by the API.", nil, nil),
	}
}

func (sc *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sc.cacheHits
	ch <- sc.cacheMisses
	ch <- sc.cacheSize
	ch <- sc.rateLimitUsed
	ch <- sc.rateLimitMax
	ch <- sc.requestsRemaining
}

func (sc *statsCollector) Collect(ch chan<- prometheus.Metric) {
	cs := sc.client.CacheStats()
	ch <- prometheus.MustNewConstMetric(sc.cacheHits, prometheus.CounterValue, float64(cs.Hits))
	ch <- prometheus.MustNewConstMetric(sc.cacheMisses, prometheus.CounterValue, float64(cs.Misses))
	ch <- prometheus.MustNewConstMetric(sc.cacheSize, prometheus.GaugeValue, float64(cs.Size))

	rs := sc.client.RateLimitStats()
	ch <- prometheus.MustNewConstMetric(sc.rateLimitUsed, prometheus.GaugeValue, float64(rs.RequestsUsed))
	ch <- prometheus.MustNewConstMetric(sc.rateLimitMax, prometheus.GaugeValue, float64(rs.MaxRequests))
	ch <- prometheus.MustNewConstMetric(sc.requestsRemaining, prometheus.GaugeValue, float64(sc.client.RequestsRemaining()))
}
