// Package metrics holds the Prometheus collectors of the sign-in service.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snappa"

// Sign-in outcomes
const (
	OutcomeSuccess          = "success"
	OutcomeUserNotFound     = "user_not_found"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeDirectoryError   = "directory_error"
	OutcomeLocal            = "local"
	OutcomeLocalRejected    = "local_rejected"
	OutcomeIssueError       = "issue_error"
)

// Per-address check results
const (
	CheckValid   = "valid"
	CheckInvalid = "invalid"
	CheckError   = "error"
	CheckTimeout = "timeout"
)

// Metrics bundles the service collectors with their registry
type Metrics struct {
	registry *prometheus.Registry

	signIns       *prometheus.CounterVec
	raceDuration  *prometheus.HistogramVec
	addressChecks *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "sign_ins_total",
				Help:      "Sign-in attempts by outcome.",
			},
			[]string{"outcome"},
		),
		raceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "verification_duration_seconds",
				Help:      "Time to decide a signature verification race.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"verified"},
		),
		addressChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "address_checks_total",
				Help:      "Per-address signature checks by result.",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.signIns,
		m.raceDuration,
		m.addressChecks,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSignIn counts a sign-in attempt
func (m *Metrics) ObserveSignIn(outcome string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(outcome).Inc()
}

// ObserveRace records how long a verification race took
func (m *Metrics) ObserveRace(verified bool, d time.Duration) {
	if m == nil {
		return
	}
	m.raceDuration.WithLabelValues(strconv.FormatBool(verified)).Observe(d.Seconds())
}

// ObserveAddressCheck counts one per-address check
func (m *Metrics) ObserveAddressCheck(result string) {
	if m == nil {
		return
	}
	m.addressChecks.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records a handled request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
