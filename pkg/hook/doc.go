/*
Package hook is the view-facing surface of the sync layer and the
composition root that wires everything underneath it.

# Architecture

	             view / HTTP handler
	                     │
	               hook.Acquire ──► Hook (Snapshot / Subscribe /
	                     │                Refetch / Close)
	                     ▼
	  ┌───────────────── Engine ─────────────────┐
	  │                                          │
	  │  cache.Registry      one cell per key    │
	  │  fetch.Coordinator   one per active key  │
	  │  poll.Scheduler      one loop per key    │
	  │  modeswitch.Registry reset + refetch     │
	  │  source chain        agent→stream→rest   │
	  │  store.Store         seed + persist      │
	  │  demo.Provider       canned fleet        │
	  │  agentProber         liveness flag       │
	  └──────────────────────────────────────────┘

# Mount Lifecycle

Acquire refcounts by cache key. The first hook on a key creates its
coordinator, registers its transition refetch handler, starts its poll
loop and kicks off the initial fetch. Every later hook on the same key
shares all of that. The last Close tears the machinery down but keeps
the cell and its data, so navigating away and back renders instantly
from cache while a silent refresh catches up.

A first mount with persisted data goes the same way: the cell is
seeded from the store synchronously, the view renders the snapshot,
and the initial fetch runs silently behind it. Only a key with no
cached and no persisted data shows a blocking loading state.

# Mode Transitions

SetDemoMode flips the engine-wide flag and broadcasts a cache reset
for every family. Each family's reset handler clears its persisted
snapshot and wipes its cells, so nothing from the previous mode
survives in memory or on disk. Mounted keys refetch in the background;
unmounted cells finish their reset immediately so they are not stuck
resetting when next mounted.

SetBackgrounded only changes poll cadence. RefetchAll refreshes
without resetting, for the kubeconfig watcher and manual refresh.

# Usage

	engine := hook.NewEngine(cfg, st, sess)
	engine.Start()
	defer engine.Stop()

	h, err := engine.Acquire("pods", types.Scope{Cluster: "prod-east"})
	if err != nil {
		return err
	}
	defer h.Close()

	unsub := h.Subscribe(func(s cache.State) { render(s) })
	defer unsub()

# See Also

  - pkg/fetch for what a refresh actually does
  - pkg/cache for the state machine views observe
  - pkg/modeswitch for transition plumbing
*/
package hook
