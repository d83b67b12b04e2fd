// Package metrics wires the server's Prometheus instrumentation (spec.md
// §9 ambient stack additions, C10), registered into its own
// prometheus.Registry the way the teacher's pkg/server/server.go does
// rather than the global default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openncd/netconfd/internal/dispatch"
)

// Recorder implements dispatch.Metrics against a Prometheus registry.
type Recorder struct {
	rpcTotal       *prometheus.CounterVec
	rpcDuration    *prometheus.HistogramVec
	lockDenied     prometheus.Counter
	editErrors     *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// New registers every collector into reg and returns a Recorder. Callers
// typically pass the same registry the gRPC/HTTP admin surface exposes on
// /metrics (see internal/admin).
func New(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		rpcTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconfd",
			Name:      "rpc_total",
			Help:      "Total NETCONF RPCs dispatched, by rpc name and outcome.",
		}, []string{"rpc", "outcome"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netconfd",
			Name:      "rpc_duration_seconds",
			Help:      "NETCONF RPC dispatch latency in seconds, by rpc name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"rpc"}),
		lockDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netconfd",
			Name:      "lock_denied_total",
			Help:      "Total lock-denied rpc-errors returned to clients.",
		}),
		editErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netconfd",
			Name:      "edit_config_errors_total",
			Help:      "Total edit-config failures, by rpc-error tag.",
		}, []string{"tag"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netconfd",
			Name:      "active_sessions",
			Help:      "Number of currently open NETCONF sessions.",
		}),
	}
	reg.MustRegister(r.rpcTotal, r.rpcDuration, r.lockDenied, r.editErrors, r.activeSessions)
	return r
}

// ObserveRPC implements dispatch.Metrics.
func (r *Recorder) ObserveRPC(rpc string, err error, dur time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.rpcTotal.WithLabelValues(rpc, outcome).Inc()
	r.rpcDuration.WithLabelValues(rpc).Observe(dur.Seconds())
}

// IncLockDenied implements dispatch.Metrics.
func (r *Recorder) IncLockDenied() { r.lockDenied.Inc() }

// IncEditError implements dispatch.Metrics.
func (r *Recorder) IncEditError(tag string) { r.editErrors.WithLabelValues(tag).Inc() }

// SetActiveSessions reports the current session count. It is wired as
// an internal/session.Table session-count hook rather than called
// directly, so the gauge tracks every Add/Remove.
func (r *Recorder) SetActiveSessions(n int) { r.activeSessions.Set(float64(n)) }

var _ dispatch.Metrics = (*Recorder)(nil)
