package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Role metrics, labeled by role name.
	RoleDesired = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "steward_role_desired",
			Help: "Desired container count by role",
		},
		[]string{"role"},
	)

	RoleActual = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "steward_role_actual",
			Help: "Allocated, not yet released container count by role",
		},
		[]string{"role"},
	)

	RoleRequested = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "steward_role_requested",
			Help: "Outstanding container requests by role",
		},
		[]string{"role"},
	)

	RoleReleasing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "steward_role_releasing",
			Help: "Containers awaiting release by role",
		},
		[]string{"role"},
	)

	// Cumulative cluster-wide counters.
	ContainersStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steward_containers_started_total",
			Help: "Total containers that reached StateLive",
		},
	)

	ContainersFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steward_containers_failed_total",
			Help: "Total containers that crashed after starting",
		},
	)

	ContainersStartFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steward_containers_start_failed_total",
			Help: "Total containers whose node manager reported a start failure",
		},
	)

	UnknownCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steward_unknown_completions_total",
			Help: "Total completion reports for a container id the engine had no record of",
		},
	)

	SurplusContainersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steward_surplus_containers_total",
			Help: "Total containers allocated beyond a role's desired count and released unused",
		},
	)

	TeardownTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steward_teardown_triggered_total",
			Help: "Total times a role's failure threshold triggered cluster teardown",
		},
	)

	ReviewCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steward_review_cycle_duration_seconds",
			Help:    "Time taken by one review-and-release pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	HeartbeatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "steward_heartbeat_duration_seconds",
			Help:    "Time taken by one resource manager heartbeat round-trip",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		RoleDesired,
		RoleActual,
		RoleRequested,
		RoleReleasing,
		ContainersStartedTotal,
		ContainersFailedTotal,
		ContainersStartFailedTotal,
		UnknownCompletionsTotal,
		SurplusContainersTotal,
		TeardownTriggeredTotal,
		ReviewCycleDuration,
		HeartbeatDuration,
	)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
