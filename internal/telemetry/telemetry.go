// Package telemetry provides Prometheus instrumentation for the engagement
// service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all engagement Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Actor metrics
	InteractionsRecorded *prometheus.CounterVec
	InteractionConflicts prometheus.Counter
	CounterUpdates       *prometheus.CounterVec
	SideWriteFailures    prometheus.Counter
	BehaviorUpdates      *prometheus.CounterVec
	AnalyticsEvents      *prometheus.CounterVec
	QueryDuration        *prometheus.HistogramVec

	// Rate limiting
	RequestsThrottled prometheus.Counter
}

// Provider wraps the metrics registry.
type Provider struct {
	Metrics *Metrics
}

// NewProvider initializes Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{Metrics: initMetrics()}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initHTTPMetrics(m)
	initActorMetrics(m)
	return m
}

func initHTTPMetrics(m *Metrics) {
	m.RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engagement_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "route"})

	m.RequestsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagement_http_requests_throttled_total",
		Help: "Requests rejected by the rate limiter",
	})
}

func initActorMetrics(m *Metrics) {
	m.InteractionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_interactions_recorded_total",
		Help: "Interaction deltas applied, by interaction type",
	}, []string{"type"})

	m.InteractionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagement_interaction_conflicts_total",
		Help: "Duplicate interactions rejected by the write-once ledger",
	})

	m.CounterUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_counter_updates_total",
		Help: "Aggregate counter updates, by action",
	}, []string{"action"})

	m.SideWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engagement_side_write_failures_total",
		Help: "Best-effort category side-writes that failed",
	})

	m.BehaviorUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_behavior_updates_total",
		Help: "Behavior profile updates, by action",
	}, []string{"action"})

	m.AnalyticsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_analytics_events_total",
		Help: "Analytics events recorded, by event type",
	}, []string{"type"})

	m.QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engagement_analytics_query_duration_seconds",
		Help:    "Analytics query latency, by query kind",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"kind"})
}

// GinMiddleware records request counts and latency per route. The route
// template is used instead of the raw path to keep label cardinality bounded.
func (p *Provider) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		p.Metrics.RequestsTotal.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Inc()
		p.Metrics.RequestDuration.WithLabelValues(
			c.Request.Method, route,
		).Observe(time.Since(start).Seconds())
	}
}

// RecordInteraction records an applied interaction delta.
func (p *Provider) RecordInteraction(interactionType string) {
	p.Metrics.InteractionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordConflict records a duplicate interaction rejection.
func (p *Provider) RecordConflict() {
	p.Metrics.InteractionConflicts.Inc()
}

// RecordCounterUpdate records an aggregate counter update.
func (p *Provider) RecordCounterUpdate(action string) {
	p.Metrics.CounterUpdates.WithLabelValues(action).Inc()
}

// RecordSideWriteFailure records a failed category side-write.
func (p *Provider) RecordSideWriteFailure() {
	p.Metrics.SideWriteFailures.Inc()
}

// RecordBehaviorUpdate records a behavior profile update.
func (p *Provider) RecordBehaviorUpdate(action string) {
	p.Metrics.BehaviorUpdates.WithLabelValues(action).Inc()
}

// RecordAnalyticsEvent records one analytics event.
func (p *Provider) RecordAnalyticsEvent(eventType string) {
	p.Metrics.AnalyticsEvents.WithLabelValues(eventType).Inc()
}

// RecordQueryDuration records the latency of an analytics query.
func (p *Provider) RecordQueryDuration(kind string, duration time.Duration) {
	p.Metrics.QueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordThrottled records a rate-limited request.
func (p *Provider) RecordThrottled() {
	p.Metrics.RequestsThrottled.Inc()
}
