// Package metrics counts gate outcomes, authorization decisions and login
// attempts, and exposes them for Prometheus.
//
// Collectors live on a private registry owned by Recorder, so tests and
// multiple servers in one process do not collide. When a SeriesWriter is
// attached, authorization decisions and login attempts are also written to
// it as time series.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login attempt results.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginMissingCredentials = "missing_credentials"
	LoginError              = "error"
)

// SeriesWriter receives a copy of every recorded decision. The InfluxDB
// client satisfies it.
type SeriesWriter interface {
	WriteAuthDecision(route, code string, authorized bool)
	WriteLoginAttempt(result string)
}

// Recorder owns the Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry
	series   SeriesWriter

	authDecisions   *prometheus.CounterVec
	gateOutcomes    *prometheus.CounterVec
	loginAttempts   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a Recorder whose metric names are prefixed with namespace.
// series may be nil.
func New(namespace string, series SeriesWriter) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		series:   series,
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Authorization checks by decision code.",
		}, []string{"code"}),
		gateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_outcomes_total",
			Help:      "Page gate results by outcome.",
		}, []string{"outcome"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login requests by result.",
		}, []string{"result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00025, 2, 16), // 0.25ms to 8s
		}, []string{"method", "status"}),
	}

	r.registry.MustRegister(
		r.authDecisions,
		r.gateOutcomes,
		r.loginAttempts,
		r.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// AuthDecision counts one authorization check for route.
func (r *Recorder) AuthDecision(route, code string, authorized bool) {
	r.authDecisions.WithLabelValues(code).Inc()
	if r.series != nil {
		r.series.WriteAuthDecision(route, code, authorized)
	}
}

// GateOutcome counts one page gate result.
func (r *Recorder) GateOutcome(outcome string) {
	r.gateOutcomes.WithLabelValues(outcome).Inc()
}

// LoginAttempt counts one login request.
func (r *Recorder) LoginAttempt(result string) {
	r.loginAttempts.WithLabelValues(result).Inc()
	if r.series != nil {
		r.series.WriteLoginAttempt(result)
	}
}

// ObserveRequest records the latency of a finished HTTP request.
func (r *Recorder) ObserveRequest(method string, status int, d time.Duration) {
	r.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
