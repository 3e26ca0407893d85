/*
Package metrics provides Prometheus instrumentation for Fleetglass.

All collectors are package-level and registered at init, so importing
any instrumented package is enough to expose its metrics. The daemon
serves them via Handler on /metrics.

# Metric Catalog

Fetch pipeline:

	fleetglass_fetch_attempts_total{family,source,outcome}
	  Per-source attempt counter. Outcomes: success, skipped,
	  cancelled, timeout, transport, parse, unavailable, unknown.

	fleetglass_fetch_duration_seconds{family}
	  Full chain-walk duration per refresh cycle.

	fleetglass_chain_fallthroughs_total{family,source}
	  How often each source failed and the chain moved on. A rising
	  agent fallthrough rate usually means the liveness flag is stale.

Cache:

	fleetglass_cache_resets_total{family}
	  Reset broadcasts (demo toggles, kubeconfig changes).

	fleetglass_refetch_broadcasts_total
	  Non-destructive refetch-all broadcasts.

	fleetglass_cell_items{key} / fleetglass_cell_consecutive_failures{key}
	  Live cell gauges, updated by the hook engine.

Hooks:

	fleetglass_hooks_active
	  Mounted hook instances across all families.

	fleetglass_poll_ticks_total{family}
	  Background poll fires.

# Usage

Recording a fetch outcome:

	metrics.FetchAttemptsTotal.WithLabelValues("pods", "agent", "success").Inc()

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FetchDuration.WithLabelValues("pods"))

Serving:

	http.Handle("/metrics", metrics.Handler())

# Cardinality Notes

CellItems and CellFailures are keyed by full cache key. Keys are
bounded by (families × clusters × namespaces actually viewed), which
stays small in practice; scoped hooks for many namespaces would be the
first thing to watch.

# See Also

  - pkg/fetch for the counters' primary writer
  - cmd/fleetglass for the /metrics endpoint
*/
package metrics
