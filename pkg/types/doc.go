/*
Package types defines the core data structures used throughout Fleetglass.

This package contains the fundamental types of the data synchronization
layer: resource payloads, query scopes, per-family fetch policies, and
the fetch error taxonomy. All other packages build on these types for
cache management, source fallback, and hook state.

# Architecture

The types package is the foundation of the sync layer's data model:

  - Resource: one opaque list item with identity/ordering metadata
  - Scope: the (cluster, namespace) narrowing of a query
  - Family: the cache and fetch policy of one resource class
  - Batch: a partial per-cluster result from a streaming source
  - Error sentinels: the fetch failure taxonomy

# Resources

A Resource is deliberately shallow. The sync layer treats Kubernetes
payloads as opaque: it never interprets pod phases or deployment specs.
The only fields it reads are:

  - Name/Namespace: dedup identity
  - Cluster: the scope label the record was enumerated under
  - Metrics: numeric accounting for ordering ("restarts") and for
    dedup consistency checks ("gpu_allocated" vs "gpu_capacity")
  - Raw: the untouched source payload handed through to views

# Scopes and Cache Keys

Scope.Key produces the canonical cache key:

	<family>|<cluster>|<namespace>

with the "all" sentinel for unscoped dimensions. Every in-memory cell,
poll timer and refetch registration is keyed by this string, so the
format is load-bearing: prefix matching on "<family>|" selects all
cells of one family.

# Families

A Family is the unit of policy. Most knobs default via WithDefaults:

  - Required: whether fetch failures surface as visible errors
  - Retry: opt-in to the capped 2s/5s post-failure retry
  - Persist: mirror successful fetches to the durable store
  - DedupeByName: collapse duplicate physical resources enumerated
    under different cluster labels
  - PreferAuthoritative: let a complete source replace partial
    streaming results
  - Sort: ordering applied after every incremental merge
  - Poll interval and per-source timeout budgets

# Error Taxonomy

Five sentinels cover every fetch failure:

	ErrSourceUnavailable  availability gate said no
	ErrTimeout            budget exceeded
	ErrTransport          network/HTTP failure
	ErrParse              malformed payload
	ErrCancelled          superseded by a newer fetch

ClassifyError folds context.Canceled and context.DeadlineExceeded into
the taxonomy so callers route on kinds, not transport details.
ErrCancelled is special: it never increments failure counters and never
reaches views.

# Usage

Building a cache key:

	scope := types.Scope{Cluster: "prod-east"}
	key := scope.Key("pods") // "pods|prod-east|all"

Declaring a family:

	fam := types.Family{
		Name:         "gpu-nodes",
		DedupeByName: true,
		Sort:         types.SortByName,
		PollInterval: 10 * time.Second,
	}.WithDefaults()

Classifying a source failure:

	if types.IsCancelled(err) {
		return // superseded, do not touch the cell
	}
	kind := types.ClassifyError(err)

# See Also

  - pkg/cache for the cell state built on these types
  - pkg/source for the transports producing Resources and Batches
  - pkg/fetch for the coordinator routing on the error taxonomy
*/
package types
