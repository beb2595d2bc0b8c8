package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Cumulative number of HTTP requests by host, method and status.",
		},
		[]string{"host", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by host and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "method"},
	)

	sandboxTokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandbox_tokens_issued_total",
			Help: "Cumulative number of single-use sandbox tokens issued.",
		})

	sandboxEntriesDenied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sandbox_entries_denied_total",
			Help: "Cumulative number of denied sandbox entry attempts.",
		})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		sandboxTokensIssued,
		sandboxEntriesDenied,
	)
}

// CountTokenIssued records a successful sandbox token issue.
func CountTokenIssued() { sandboxTokensIssued.Inc() }

// CountSandboxEntryDenied records a denied sandbox entry attempt. The
// counter is deliberately reason-free: the uniform failure surface extends
// to metrics labels.
func CountSandboxEntryDenied() { sandboxEntriesDenied.Inc() }

// Metrics records request counts and latencies for every HTTP request.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		httpRequestsTotal.WithLabelValues(r.Host, r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Host, r.Method).Observe(time.Since(start).Seconds())
	})
}
