package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	Intents          *prometheus.CounterVec
	Reports          *prometheus.CounterVec
	StorageFallbacks *prometheus.CounterVec
	Alerts           *prometheus.CounterVec
	PublishFailures  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentrix",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sentrix",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentrix",
			Name:      "query_intents_total",
			Help:      "Classified chat queries by intent.",
		}, []string{"intent"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentrix",
			Name:      "reports_generated_total",
			Help:      "Generated reports by type.",
		}, []string{"type"}),
		StorageFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentrix",
			Name:      "storage_fallbacks_total",
			Help:      "Store operations served by the file store after a primary failure.",
		}, []string{"op"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentrix",
			Name:      "alerts_total",
			Help:      "Alert decisions by outcome.",
		}, []string{"outcome"}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sentrix",
			Name:      "event_publish_failures_total",
			Help:      "Report events that could not be published.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Intents,
		m.Reports,
		m.StorageFallbacks,
		m.Alerts,
		m.PublishFailures,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
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
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
