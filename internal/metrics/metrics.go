// Package metrics provides Prometheus metrics for AskMatsya
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Assistant metrics
	MatcherIntentsTotal *prometheus.CounterVec
	CatalogFetchesTotal *prometheus.CounterVec
	CatalogSize         prometheus.Gauge

	// Order metrics
	OrdersPlacedTotal     prometheus.Counter
	OrderTransitionsTotal *prometheus.CounterVec
	NotificationsTotal    *prometheus.CounterVec
	TranscriptionsTotal   *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askmatsya_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askmatsya_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.MatcherIntentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askmatsya_matcher_intents_total",
			Help: "Queries answered, by the intent rule that fired",
		},
		[]string{"intent", "language"},
	)

	m.CatalogFetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askmatsya_catalog_fetches_total",
			Help: "Catalog fetches, by the provider that served them",
		},
		[]string{"source"},
	)

	m.CatalogSize = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "askmatsya_catalog_products",
			Help: "Products in the current catalog snapshot",
		},
	)

	m.OrdersPlacedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "askmatsya_orders_placed_total",
			Help: "Total number of orders placed",
		},
	)

	m.OrderTransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askmatsya_order_transitions_total",
			Help: "Order status transitions, by target status and outcome",
		},
		[]string{"status", "result"},
	)

	m.NotificationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askmatsya_notifications_total",
			Help: "Outbound notifications, by kind, channel and result",
		},
		[]string{"kind", "channel", "result"},
	)

	m.TranscriptionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askmatsya_transcriptions_total",
			Help: "Audio transcription requests, by result",
		},
		[]string{"result"},
	)

	return m
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordIntent(intent, language string) {
	if m == nil {
		return
	}
	m.MatcherIntentsTotal.WithLabelValues(intent, language).Inc()
}

func (m *Metrics) RecordCatalogFetch(source string, size int) {
	if m == nil {
		return
	}
	m.CatalogFetchesTotal.WithLabelValues(source).Inc()
	m.CatalogSize.Set(float64(size))
}

func (m *Metrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlacedTotal.Inc()
}

func (m *Metrics) RecordTransition(status string, err error) {
	if m == nil {
		return
	}
	m.OrderTransitionsTotal.WithLabelValues(status, result(err)).Inc()
}

func (m *Metrics) RecordNotification(kind, channel string, err error) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, channel, result(err)).Inc()
}

func (m *Metrics) RecordTranscription(err error) {
	if m == nil {
		return
	}
	m.TranscriptionsTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
