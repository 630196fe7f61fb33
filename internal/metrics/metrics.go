// Package metrics exposes Prometheus instrumentation for the API, the
// derived-data cache and the catalog providers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "popstack_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popstack_cache_events_total",
			Help: "Derived-data cache lookups and invalidations by class",
		},
		[]string{"class", "event"}, // "hit", "stale", "miss", "invalidate"
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popstack_catalog_requests_total",
			Help: "Requests sent to external catalog providers",
		},
		[]string{"provider", "result"},
	)

	CatalogBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "popstack_catalog_breaker_state",
			Help: "Circuit breaker state per catalog provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	FriendshipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popstack_friendship_transitions_total",
			Help: "Friendship state machine transitions",
		},
		[]string{"transition"}, // "request", "implicit_accept", "accept", "reject", "remove"
	)
)

// CacheObserver forwards cache events to CacheEvents.
type CacheObserver struct{}

func (CacheObserver) CacheHit(class string)   { CacheEvents.WithLabelValues(class, "hit").Inc() }
func (CacheObserver) CacheStale(class string) { CacheEvents.WithLabelValues(class, "stale").Inc() }
func (CacheObserver) CacheMiss(class string)  { CacheEvents.WithLabelValues(class, "miss").Inc() }
func (CacheObserver) CacheInvalidated(class string) {
	CacheEvents.WithLabelValues(class, "invalidate").Inc()
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request durations labelled by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
