/*
Package fetch implements the per-key fetch coordinator and the
progressive accumulator.

The coordinator is the state machine behind every data hook: it walks
the source chain, decides between blocking and silent refreshes,
merges streaming batches progressively, and is the only writer of its
cache cell. Roughly half of the sync layer's behavior lives here.

# Architecture

	┌──────────────── FETCH COORDINATOR ────────────────┐
	│                                                    │
	│  Refresh(ctx, silent)                              │
	│    │                                               │
	│    ├─ supersede: cancel in-flight fetch, bump gen  │
	│    │                                               │
	│    ├─ demo mode active? ──► canned data, done      │
	│    │                                               │
	│    └─ walk chain:                                  │
	│         agent ──► stream ──► rest                  │
	│           │         │          │                   │
	│           │    Progressive     │                   │
	│           │    Accumulator     │                   │
	│           │    (batch → cell)  │                   │
	│           ▼         ▼          ▼                   │
	│         first success wins, persists, returns      │
	│                                                    │
	│       exhausted: keep stale data, count failure,   │
	│       demo fallback for never-populated cells,     │
	│       arm capped retry (2s, 5s) if opted in        │
	└────────────────────────────────────────────────────┘

# Refresh Cycle Policy

  - Demo mode short-circuits everything. Canned records filtered to
    the requested scope are authoritative while the global flag is on,
    and nothing is persisted, so real-cluster cache stays clean.
  - A silent refresh (background poll, mode-transition refetch) on a
    cell with data only toggles IsRefreshing. The blocking IsLoading
    state is reserved for a brand-new key's first fetch.
  - Success from any source resets the failure counter, stamps both
    timestamps and persists (for persisting families).
  - Chain exhaustion leaves data and LastUpdated untouched, increments
    the failure counter, and surfaces a visible error only for
    required families.

# Supersession

A newer Refresh for the same key cancels the older one's context and
bumps the cell generation. The older fetch's late results — success or
failure — fail the generation check and vanish without side effects.
This is how rapid navigation and scope changes stay race-free on a
cooperative scheduler: the cell only ever reflects the most recently
initiated fetch.

# Progressive Accumulation

Streaming sources emit (cluster, items) batches. Each batch is
unioned into the accumulator and the merged, re-sorted list is pushed
to the cell immediately, so a multi-cluster dashboard renders the
first cluster's pods while the ninth is still being queried. Re-sorted
after every merge, not just at completion: the progressively rendered
list is never visibly out of order.

If the stream cuts out partway, the accumulated items stay in the
cell and later chain entries only fill the gaps around them. Families
that set PreferAuthoritative opt out and let a complete source replace
the partial set.

# Dedup

Families with DedupeByName merge records describing the same physical
resource under different cluster labels. PreferredDuplicate is the
documented tie-break: shorter (canonical) label first, then internal
accounting consistency (allocated ≤ capacity), then the incumbent.
It is a standalone pure function precisely so this policy is testable
outside the fetch path.

# Retry

Families that opt in get two silent retries after an exhausted cycle,
2s and then 5s later (exponential, capped). Retries stop the moment
data arrives, never stack, and never run while demo mode is active.

# Usage

	cell := registry.GetOrCreate(scope.Key(fam.Name))
	coord := fetch.NewCoordinator(fam, scope, cell, chain, demoSrc, st, engine.DemoActive)

	coord.Refresh(ctx, false) // blocking first load
	coord.Refresh(ctx, true)  // silent background refresh
	coord.Stop()              // teardown: cancel in-flight work

# See Also

  - pkg/cache for the generation check enforcing supersession
  - pkg/source for the chain entries
  - pkg/hook for lifecycle wiring (polling, mode transitions)
*/
package fetch
