// Package monitoring exposes Prometheus metrics and OpenTelemetry tracing
// for the catalog.
package monitoring

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/econutri/tracker/internal/domain/recipe"
	"github.com/econutri/tracker/internal/domain/shared"
	"github.com/econutri/tracker/internal/ports/outbound"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "econutri"

// MetricsCollector handles Prometheus metrics collection. It owns its
// registry so several collectors can coexist in one process.
type MetricsCollector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec
	actionsTotal        *prometheus.CounterVec

	// Business metrics
	recipesCreatedTotal     prometheus.Counter
	recipesDeactivatedTotal prometheus.Counter
	recipeScore             prometheus.Histogram
	csrfRejectionsTotal     prometheus.Counter
	rateLimitedTotal        prometheus.Counter
}

var _ outbound.EventPublisher = (*MetricsCollector)(nil)

// NewMetricsCollector creates a new metrics collector with Go runtime and
// process collectors registered
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,
		logger:   logger.Named("metrics"),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Controller actions dispatched by the front controller",
			},
			[]string{"controller", "action", "status_code"},
		),

		recipesCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recipes_created_total",
				Help:      "Total number of recipes created",
			},
		),
		recipesDeactivatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recipes_deactivated_total",
				Help:      "Total number of recipes removed from the listing",
			},
		),
		recipeScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recipe_score",
				Help:      "Sustainability score of created recipes",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),
		csrfRejectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "csrf_rejections_total",
				Help:      "Mutating requests rejected for a missing or wrong security token",
			},
		),
		rateLimitedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),
	}
}

// RegisterDB exports connection pool statistics of db
func (m *MetricsCollector) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// HTTPMiddleware records request count, latency and response size per
// chi route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
	})
}

// ActionDispatched counts a controller action by its final status
func (m *MetricsCollector) ActionDispatched(controller, action string, status int) {
	m.actionsTotal.WithLabelValues(controller, action, strconv.Itoa(status)).Inc()
}

// CSRFRejected counts a rejected mutating request
func (m *MetricsCollector) CSRFRejected() {
	m.csrfRejectionsTotal.Inc()
}

// RateLimited counts a throttled request
func (m *MetricsCollector) RateLimited() {
	m.rateLimitedTotal.Inc()
}

// Publish turns domain events into business metrics
func (m *MetricsCollector) Publish(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case recipe.RecipeCreatedEvent:
		m.recipesCreatedTotal.Inc()
		m.recipeScore.Observe(float64(e.Score.Int()))
	case recipe.RecipeDeactivatedEvent:
		m.recipesDeactivatedTotal.Inc()
	default:
		m.logger.Debug("Ignoring unknown event", zap.String("event", event.EventName()))
	}
	return nil
}

// Registry returns the collector's registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
