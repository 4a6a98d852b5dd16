package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the portal.
type Metrics struct {
	LoginsTotal          *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
	RemoteCalls          *prometheus.CounterVec
	RemoteCallDuration   *prometheus.HistogramVec
	ComplaintsSubmitted  *prometheus.CounterVec
	BulkQueriesSubmitted *prometheus.CounterVec
	RegistryOperations   *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeco_logins_total",
			Help: "Total number of login attempts, labeled by outcome",
		}, []string{"outcome"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "redeco_active_sessions",
			Help: "Current number of active sessions",
		}),
		RemoteCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeco_remote_calls_total",
			Help: "Total number of CONDUSEF API calls, labeled by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		RemoteCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "redeco_remote_call_duration_seconds",
			Help:    "Latency of CONDUSEF API calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ComplaintsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeco_complaints_submitted_total",
			Help: "Total number of complaint submissions, labeled by outcome",
		}, []string{"outcome"}),
		BulkQueriesSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeco_bulk_queries_submitted_total",
			Help: "Total number of REUNE bulk query submissions, labeled by outcome",
		}, []string{"outcome"}),
		RegistryOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "redeco_registry_operations_total",
			Help: "Total number of local client registry operations, labeled by operation",
		}, []string{"operation"}),
	}
}
