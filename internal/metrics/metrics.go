package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bedrockgw_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bedrockgw_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"route"},
	)

	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bedrockgw_upstream_requests_total",
			Help: "Total number of upstream model invocations",
		},
		[]string{"provider", "model", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bedrockgw_upstream_duration_seconds",
			Help:    "Upstream model invocation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bedrockgw_upstream_errors_total",
			Help: "Total number of upstream errors",
		},
		[]string{"provider", "error_type"},
	)

	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bedrockgw_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bedrockgw_auth_failures_total",
			Help: "Total number of rejected logins and bearer tokens",
		},
		[]string{"reason"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bedrockgw_active_requests",
			Help: "Number of HTTP requests being processed",
		},
	)

	InstanceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bedrockgw_instance_info",
			Help: "Instance information (always 1)",
		},
		[]string{"version", "region"},
	)
)

func RecordRequest(route, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(route, status).Inc()
	RequestDuration.WithLabelValues(route).Observe(durationSec)
}

func RecordUpstream(provider, model, status string, durationSec float64) {
	UpstreamRequestsTotal.WithLabelValues(provider, model, status).Inc()
	UpstreamDuration.WithLabelValues(provider, model).Observe(durationSec)
}

func RecordUpstreamError(provider, errorType string) {
	UpstreamErrors.WithLabelValues(provider, errorType).Inc()
}

func RecordTokenIssued() {
	TokensIssued.Inc()
}

// RecordAuthFailure counts a rejected login or token. reason is one of
// "credentials", "missing_token" or "invalid_token".
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}

func IncrementActiveRequests() {
	ActiveRequests.Inc()
}

func DecrementActiveRequests() {
	ActiveRequests.Dec()
}

// InitInstanceMetrics should be called once at startup.
func InitInstanceMetrics(version, region string) {
	InstanceInfo.WithLabelValues(version, region).Set(1)
}
