// Package metrics exposes request and collection figures to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"immistat/internal/core"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	suspiciousRequests prometheus.Counter
	rateLimited        prometheus.Counter

	recordsCreated prometheus.Counter
	recordsDeleted prometheus.Counter

	records    prometheus.Gauge
	population *prometheus.GaugeVec
	smartCards prometheus.Gauge
	revenue    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "immistat_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "immistat_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		suspiciousRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "immistat_suspicious_requests_total",
			Help: "Requests flagged by the security detector.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "immistat_rate_limited_requests_total",
			Help: "Mutation requests rejected by the per-client rate limit.",
		}),
		recordsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "immistat_records_created_total",
			Help: "Records added through the entry form or API.",
		}),
		recordsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "immistat_records_deleted_total",
			Help: "Records removed after confirmation.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "immistat_records",
			Help: "Records in the collection.",
		}),
		population: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "immistat_population",
			Help: "Population recorded per township.",
		}, []string{"township"}),
		smartCards: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "immistat_smart_cards",
			Help: "Smart cards issued across all records.",
		}),
		revenue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "immistat_revenue_kyat",
			Help: "Revenue across all records.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.suspiciousRequests,
		m.rateLimited,
		m.recordsCreated,
		m.recordsDeleted,
		m.records,
		m.population,
		m.smartCards,
		m.revenue,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SuspiciousRequest() { m.suspiciousRequests.Inc() }

// RateLimited counts one rejected mutation.
func (m *Metrics) RateLimited(string) { m.rateLimited.Inc() }

func (m *Metrics) RecordCreated() { m.recordsCreated.Inc() }

func (m *Metrics) RecordDeleted() { m.recordsDeleted.Inc() }

// SetSummary refreshes the collection gauges.
func (m *Metrics) SetSummary(s core.Summary) {
	m.records.Set(float64(s.RecordCount))
	m.smartCards.Set(float64(s.TotalSmartCard))
	m.revenue.Set(float64(s.TotalRevenue))
	for _, t := range s.Townships {
		m.population.WithLabelValues(t.Name).Set(float64(t.Population))
	}
}
