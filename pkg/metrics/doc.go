/*
Package metrics provides Prometheus metrics and health/readiness
endpoints for the application master.

Metrics fall into three groups: per-role gauges (steward_role_desired,
steward_role_actual, steward_role_requested, steward_role_releasing),
cumulative cluster-wide counters
(steward_containers_started_total, steward_containers_failed_total,
steward_containers_start_failed_total,
steward_unknown_completions_total, steward_surplus_containers_total,
steward_teardown_triggered_total), and two histograms
(steward_review_cycle_duration_seconds,
steward_heartbeat_duration_seconds).

All metrics are registered at package init against the default
Prometheus registry and exposed via Handler() for mounting at
/metrics. A Collector samples a ClusterDescription snapshot into the
gauges on a timer, since the engine does not call into metrics from
its own hot path.

Health and readiness are tracked separately via RegisterComponent /
UpdateComponent against a fixed set of critical collaborators
("history-store", "rm-client", "status-api"); HealthHandler,
ReadyHandler, and LivenessHandler serve JSON at /health, /ready, and
/live respectively.

# Usage

	metrics.RoleActual.WithLabelValues("worker").Set(4)

	timer := metrics.NewTimer()
	ops, err := engine.ReviewRequestAndReleaseNodes()
	timer.ObserveDuration(metrics.ReviewCycleDuration)

	collector := metrics.NewCollector(engine.RefreshClusterStatus)
	collector.Start(15 * time.Second)
	defer collector.Stop()

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
*/
package metrics
