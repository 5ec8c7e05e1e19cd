// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Registry owns every collector the service exports. All Observe methods
// are safe on a nil *Registry so components can run without metrics.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequestsTotal        *prometheus.CounterVec
	HTTPRequestDuration      *prometheus.HistogramVec
	ProductViewCacheTotal    *prometheus.CounterVec
	ProductViewInvalidations *prometheus.CounterVec
	TokenEventsTotal         *prometheus.CounterVec
	ThrottleDecisions        *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		ProductViewCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_view_cache_total",
				Help: "Product view cache lookups by result",
			},
			[]string{"view", "result"},
		),
		ProductViewInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_view_invalidations_total",
				Help: "Product view recomputations triggered by writes",
			},
			[]string{"view"},
		),
		TokenEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_token_events_total",
				Help: "Session token lifecycle events",
			},
			[]string{"event"},
		),
		ThrottleDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "throttle_decisions_total",
				Help: "Rate limit decisions by policy, outcome and counter backend",
			},
			[]string{"policy", "outcome", "backend"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.HTTPRequestsTotal,
		r.HTTPRequestDuration,
		r.ProductViewCacheTotal,
		r.ProductViewInvalidations,
		r.TokenEventsTotal,
		r.ThrottleDecisions,
	)

	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveCache(view, result string) {
	if r == nil {
		return
	}
	r.ProductViewCacheTotal.WithLabelValues(view, result).Inc()
}

func (r *Registry) ObserveInvalidation(view string) {
	if r == nil {
		return
	}
	r.ProductViewInvalidations.WithLabelValues(view).Inc()
}

func (r *Registry) ObserveTokenEvent(event string) {
	if r == nil {
		return
	}
	r.TokenEventsTotal.WithLabelValues(event).Inc()
}

func (r *Registry) ObserveThrottle(policy, outcome, backend string) {
	if r == nil {
		return
	}
	r.ThrottleDecisions.WithLabelValues(policy, outcome, backend).Inc()
}

func (r *Registry) ObserveRequest(method, route, status string, seconds float64) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}
