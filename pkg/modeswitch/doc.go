/*
Package modeswitch coordinates cache transitions that must be applied
fleet-wide at once: entering or leaving demo mode, a kubeconfig swap,
or an explicit operator-initiated refresh.

# Architecture

	         BroadcastReset("pods", "clusters", ...)
	                        │
	        ┌───────────────┴───────────────┐
	        │ synchronous                   │ async (goroutine)
	        ▼                               ▼
	  reset handlers                  refetch handlers
	  (one per family:                (one per mounted
	   wipe cells, drop                cache key: re-run
	   persisted snapshot)             the fetch chain)

Handlers are registered by the hook engine: a reset handler per
configured family at startup, and a refetch handler per cache key
while a hook for that key is mounted. Registration returns an
unregister closure carrying a unique id, so a stale unmount can never
tear down the handler a newer mount just installed.

# Ordering

BroadcastReset runs every matching reset handler before it returns.
That is the transition's safety property: once the broadcast call
completes, no caller can observe data from the previous mode. The
refetches that repopulate the cache run afterwards in the background
and respect context cancellation during shutdown.

TriggerRefetchAll skips the reset half entirely. It is the right call
when upstream data changed but the cached view is not wrong, only
stale (a kubeconfig file rewrite, a manual refresh): existing items
stay on screen while the silent refetch runs.

# Usage

	reg := modeswitch.NewRegistry()

	stop := reg.RegisterCacheReset("pods", func() {
		st.Delete("pods")
		cells.ResetFamily("pods")
	})
	defer stop()

	unreg := reg.RegisterRefetch(key, func(ctx context.Context) {
		coord.Refresh(ctx, false)
	})
	defer unreg()

	reg.BroadcastReset(ctx, "pods", "clusters")
	reg.TriggerRefetchAll(ctx, "") // everything, no reset

# See Also

  - pkg/hook for handler registration over the mount lifecycle
  - pkg/cache for the Reset/FinishReset cell protocol
  - pkg/kubeconfig for the file watcher driving TriggerRefetchAll
*/
package modeswitch
