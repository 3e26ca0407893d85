/*
Package store provides durable last-known-good caching using BoltDB.

The store package persists the most recent successful payload per
resource family so a restarted dashboard renders data immediately
instead of opening on spinners. It is the disk half of the
stale-while-revalidate contract: the cache registry serves these
entries on mount while a fresh fetch runs in the background.

# Architecture

	┌──────────────── PERSISTENT STORE ────────────────┐
	│                                                   │
	│  BoltDB (fleetglass.db)                           │
	│    bucket "snapshots"                             │
	│      "pods"      → {key, timestamp, data}         │
	│      "clusters"  → {key, timestamp, data}         │
	│      "gpu-nodes" → {key, timestamp, data}         │
	│                                                   │
	│  One slot per family, not per scope. The slot     │
	│  records the scope key it was fetched under and   │
	│  a load only matches that exact key.              │
	└───────────────────────────────────────────────────┘

# Key Matching

Entries carry the cache key ("pods|clusterA|all") they were written
under. Load(family, wantKey) returns ErrNotFound when the stored key
differs: data fetched for clusterA must never seed a clusterB view.
The family slot is overwritten by whichever scope fetched last.

# Size Bound

Serialized entries above the byte cap (2 MiB by default) are skipped
rather than written. Large operator or Helm enumerations then simply
lose the warm-start optimization; correctness is unaffected because
the in-memory cell still holds the data.

# Usage

	st, err := store.NewBoltStore(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	err = st.Save("pods", store.Entry{
		Key:       scope.Key("pods"),
		Timestamp: time.Now(),
		Data:      items,
	})

	entry, err := st.Load("pods", scope.Key("pods"))
	if errors.Is(err, store.ErrNotFound) {
		// cold start for this scope
	}

# Consistency Rules

  - Save is skipped entirely while demo mode is active (enforced by
    the fetch coordinator) so canned records never pollute the real
    cache.
  - Delete is invoked by cache-reset broadcasts; a subsequent load
    is a cold start.
  - Values are copied out of Bolt transactions via JSON decode, so
    returned entries are safe to retain.

# See Also

  - pkg/fetch for the success path that writes entries
  - pkg/hook for the mount path that reads them
  - BoltDB: https://github.com/etcd-io/bbolt
*/
package store
