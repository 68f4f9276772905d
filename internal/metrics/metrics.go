package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safecollab/safecollab/internal/apperr"
	"github.com/safecollab/safecollab/internal/rbac"
)

// Metrics holds all Prometheus metric collectors for the SafeCollab server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Authorization and membership metrics.
	AuthzDecisionsTotal      *prometheus.CounterVec
	MembershipMutationsTotal *prometheus.CounterVec
	GroupLifecycleTotal      *prometheus.CounterVec

	// Auth and rate limiting metrics.
	AuthFailuresTotal        *prometheus.CounterVec
	AuthSuccessesTotal       *prometheus.CounterVec
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safecollab_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		HTTPRequestSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safecollab_http_request_size_bytes",
			Help:    "HTTP request size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safecollab_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		AuthzDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_authz_decisions_total",
			Help: "Total number of capability checks by outcome.",
		}, []string{"capability", "result"}),

		MembershipMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_membership_mutations_total",
			Help: "Total number of membership changes attempted, by action and outcome.",
		}, []string{"action", "result"}),

		GroupLifecycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_group_lifecycle_total",
			Help: "Total number of group creations and deletions, by outcome.",
		}, []string{"action", "result"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_auth_failures_total",
			Help: "Total number of authentication failures.",
		}, []string{"auth_type"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_auth_successes_total",
			Help: "Total number of successful authentications.",
		}, []string{"auth_type"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safecollab_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "safecollab_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.AuthzDecisionsTotal,
		m.MembershipMutationsTotal,
		m.GroupLifecycleTotal,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.RateLimitRejectionsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PromHandler serves the registry in the Prometheus exposition format.
func (m *Metrics) PromHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// RecordDecision counts an authorization decision.
func (m *Metrics) RecordDecision(capability rbac.Capability, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.AuthzDecisionsTotal.WithLabelValues(string(capability), result).Inc()
}

// ObserveMembershipMutation counts a membership change by its outcome kind.
func (m *Metrics) ObserveMembershipMutation(action string, err error) {
	m.MembershipMutationsTotal.WithLabelValues(action, result(err)).Inc()
}

// ObserveGroupLifecycle counts a group creation or deletion by its outcome kind.
func (m *Metrics) ObserveGroupLifecycle(action string, err error) {
	m.GroupLifecycleTotal.WithLabelValues(action, result(err)).Inc()
}

// IncAuthFailure increments the auth failure counter for the given auth type.
func (m *Metrics) IncAuthFailure(authType string) {
	m.AuthFailuresTotal.WithLabelValues(authType).Inc()
}

// IncAuthSuccess increments the auth success counter for the given auth type.
func (m *Metrics) IncAuthSuccess(authType string) {
	m.AuthSuccessesTotal.WithLabelValues(authType).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}
