// Package metrics provides Prometheus instrumentation for the skauth API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetrics tracks Prometheus metrics for authentication operations.
//
// All metrics use the "skauth_" prefix. Methods handle a nil receiver
// gracefully, so a nil *AuthMetrics acts as a no-op when metrics are
// disabled.
type AuthMetrics struct {
	// LoginAttempts counts login attempts by flow and result.
	// Labels: flow=[web, cli], result=[success, invalid_credentials,
	// invalid_nonce, invalid_signature, error]
	LoginAttempts *prometheus.CounterVec

	// NoncesIssued counts issued challenge nonces.
	NoncesIssued prometheus.Counter

	// SessionsRevoked counts logout-driven session revocations by flow.
	// Labels: flow=[web, cli]
	SessionsRevoked *prometheus.CounterVec

	// HTTPRequests counts API requests by method, route pattern and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration tracks request processing time by route pattern.
	HTTPDuration *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsInstance *AuthMetrics
)

// New creates and registers the skauth Prometheus metrics.
//
// If registerer is nil, prometheus.DefaultRegisterer is used. The
// function is idempotent: metrics are registered exactly once no matter
// how many times it is called.
func New(registerer prometheus.Registerer) *AuthMetrics {
	metricsOnce.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &AuthMetrics{
			LoginAttempts: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skauth_login_attempts_total",
					Help: "Total login attempts by flow and result",
				},
				[]string{"flow", "result"},
			),
			NoncesIssued: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "skauth_nonces_issued_total",
					Help: "Total challenge nonces issued",
				},
			),
			SessionsRevoked: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skauth_sessions_revoked_total",
					Help: "Total sessions revoked by logout",
				},
				[]string{"flow"},
			),
			HTTPRequests: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "skauth_http_requests_total",
					Help: "Total API requests by method, route and status",
				},
				[]string{"method", "route", "status"},
			),
			HTTPDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "skauth_http_request_duration_seconds",
					Help:    "API request duration by route",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route"},
			),
		}

		registerer.MustRegister(
			m.LoginAttempts,
			m.NoncesIssued,
			m.SessionsRevoked,
			m.HTTPRequests,
			m.HTTPDuration,
		)

		metricsInstance = m
	})

	return metricsInstance
}

// RecordLogin records a login attempt outcome.
func (m *AuthMetrics) RecordLogin(flow, result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(flow, result).Inc()
}

// RecordNonceIssued records an issued nonce.
func (m *AuthMetrics) RecordNonceIssued() {
	if m == nil {
		return
	}
	m.NoncesIssued.Inc()
}

// RecordLogout records a logout-driven revocation.
func (m *AuthMetrics) RecordLogout(flow string) {
	if m == nil {
		return
	}
	m.SessionsRevoked.WithLabelValues(flow).Inc()
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware instruments request counts and latency. The route label
// uses the raw path; mount it per route group rather than globally if
// path cardinality becomes a concern.
func (m *AuthMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
