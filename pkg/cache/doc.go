/*
Package cache provides the in-memory cell registry at the heart of the
sync layer.

A cell is the shared, process-wide record for one resource family and
scope ("pods|clusterA|all"). Every hook instance observing that key
subscribes to the same cell; the fetch coordinator is the only writer.
The package enforces the layer's central invariant: a cell that holds
data never regresses to empty because a fetch failed.

# Architecture

	┌──────────────────── CACHE REGISTRY ────────────────────┐
	│                                                         │
	│  Registry (singleton, keyed by family|cluster|ns)       │
	│    "pods|clusterA|all"   → Cell                         │
	│    "pods|all|all"        → Cell                         │
	│    "gpu-nodes|all|all"   → Cell                         │
	│                                                         │
	│  Cell                                                   │
	│    state:      data, lastUpdated, lastRefresh,          │
	│                isLoading, isRefreshing, isResetting,    │
	│                consecutiveFailures, err                 │
	│    generation: supersedes in-flight fetches             │
	│    observers:  callback per subscribed hook instance    │
	└─────────────────────────────────────────────────────────┘

# Cell Lifecycle

Cells are created lazily by GetOrCreate on first hook mount and are
retained for the life of the process. They are never destroyed; a mode
transition resets them (clears data, raises IsLoading/IsResetting) and
the next fetch repopulates them.

# Mutation Protocol

Writers follow a begin/apply protocol:

 1. BeginFetch(silent) bumps the generation and returns it. A fetch on
    a cell that already holds data, or any silent background poll,
    never raises the blocking IsLoading flag; only IsRefreshing moves.
 2. ApplyPartial(gen, items) installs progressive results and clears
    IsLoading after the first batch.
 3. ApplySuccess(gen, items) replaces data outright — including with
    an empty slice, because a source that succeeded with zero items is
    a real "nothing there" answer, distinct from "couldn't check".
 4. ApplyFailure(gen, msg, visible) moves only the failure counter and
    LastRefresh. Data and LastUpdated stay put.
 5. ApplyFallback(gen, items) installs last-resort records and only if
    the cell is empty.

Every Apply call checks the generation: a fetch that was superseded by
a newer BeginFetch (or by Reset) finds a stale generation and its
result is discarded. That is the whole concurrency story for a key —
the most recently initiated fetch always wins, never an interleaving.

# Timestamps

LastUpdated and LastRefresh are kept distinct on purpose: a failed
attempt still moves LastRefresh (resetting backoff timing and the
"checked N seconds ago" affordance) while LastUpdated moves only when
data actually changed hands.

# Failure Accounting

ConsecutiveFailures increments on chain exhaustion and resets to zero
on any success. IsFailed turns on past the threshold (3). The visible
Err string is only populated for families marked required; optional
families stay error-silent and lean on preserved stale data.

# Subscriptions

Subscribe registers an observer that fires immediately with the
current state and after every mutation. Observers run outside the cell
lock and receive defensive copies, so they may safely call back into
the cell or the registry. The returned unsubscribe function is tied to
the hook instance lifetime; after it returns, the observer never fires
again.

# Usage

	reg := cache.NewRegistry()
	cell := reg.GetOrCreate(scope.Key("pods"))

	unsub := cell.Subscribe(func(s cache.State) {
		render(s.Data, s.IsLoading, s.IsRefreshing)
	})
	defer unsub()

	gen := cell.BeginFetch(false)
	items, err := runChain(ctx)
	if err != nil {
		cell.ApplyFailure(gen, err.Error(), family.Required)
	} else {
		cell.ApplySuccess(gen, items)
	}

# See Also

  - pkg/fetch for the only sanctioned writer
  - pkg/modeswitch for reset broadcasts targeting whole families
  - pkg/hook for the view-facing subscription surface
*/
package cache
