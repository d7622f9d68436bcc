package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitalguard_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vitalguard_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitalguard_tool_calls_total",
		Help: "Agent tool invocations by tool and outcome.",
	}, []string{"tool", "result"})

	alertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vitalguard_threshold_alerts_total",
		Help: "Threshold alerts raised, by tier.",
	}, []string{"level"})

	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vitalguard_active_sessions",
		Help: "Number of live operator sessions.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, toolCallsTotal, alertsTotal, activeSessions)
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsMiddleware records request metrics, labelled by route pattern so
// patient ids do not blow up cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rr, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		dur := time.Since(start).Seconds()
		status := strconv.Itoa(rr.statusCode)
		requestsTotal.WithLabelValues(r.Method, path, status).Inc()
		requestDuration.WithLabelValues(r.Method, path).Observe(dur)
	})
}
