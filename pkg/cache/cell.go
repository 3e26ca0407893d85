package cache

import (
	"sync"
	"time"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// FailureThreshold is the consecutive-failure count past which a cell
// reports IsFailed.
const FailureThreshold = 3

// State is an immutable snapshot of a cell, safe to hand to views.
type State struct {
	Key                 string           `json:"key"`
	Data                []types.Resource `json:"data"`
	LastUpdated         time.Time        `json:"lastUpdated"`
	LastRefresh         time.Time        `json:"lastRefresh"`
	IsLoading           bool             `json:"isLoading"`
	IsRefreshing        bool             `json:"isRefreshing"`
	IsResetting         bool             `json:"isResetting"`
	ConsecutiveFailures int              `json:"consecutiveFailures"`
	Err                 string           `json:"error,omitempty"`
}

// IsFailed reports whether the cell has crossed the failure threshold.
func (s State) IsFailed() bool {
	return s.ConsecutiveFailures > FailureThreshold
}

// Cell is the in-memory record for one resource-family+scope key. All
// hook instances for the key share one cell; mutation goes exclusively
// through the fetch coordinator's update path so the
// never-regress-to-empty invariant holds.
type Cell struct {
	mu sync.Mutex

	key   string
	state State

	// generation invalidates superseded fetches: a fetch captures the
	// generation at BeginFetch and its results only apply while it is
	// still current.
	generation uint64

	subscribers map[uint64]func(State)
	nextSubID   uint64
}

func newCell(key string) *Cell {
	return &Cell{
		key:         key,
		state:       State{Key: key},
		subscribers: make(map[uint64]func(State)),
	}
}

// Key returns the cell's cache key.
func (c *Cell) Key() string {
	return c.key
}

// Snapshot returns a copy of the current state. The Data slice is
// copied so callers cannot mutate the cell.
func (c *Cell) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cell) snapshotLocked() State {
	s := c.state
	s.Data = append([]types.Resource(nil), c.state.Data...)
	return s
}

// Subscribe registers a state observer. The observer fires immediately
// with the current state and then after every mutation, until the
// returned unsubscribe function is called. Observers run outside the
// cell lock and may call back into the cell.
func (c *Cell) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	snap := c.snapshotLocked()
	c.mu.Unlock()

	fn(snap)

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// notify invokes all observers with a snapshot. Callers must not hold
// the lock.
func (c *Cell) notify() {
	c.mu.Lock()
	fns := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Generation returns the current fetch generation.
func (c *Cell) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Seed installs data loaded from the persistent store. It only applies
// to a cell that has no data and no fetch in flight, and it marks the
// cell as showing stale-but-renderable content (not loading).
func (c *Cell) Seed(items []types.Resource, ts time.Time) bool {
	c.mu.Lock()
	if len(c.state.Data) > 0 || c.state.IsRefreshing {
		c.mu.Unlock()
		return false
	}
	c.state.Data = append([]types.Resource(nil), items...)
	c.state.LastUpdated = ts
	c.state.IsLoading = false
	c.mu.Unlock()

	c.notify()
	return true
}

// BeginFetch marks the start of a fetch attempt and returns the
// generation the attempt must present to apply results. A silent
// fetch, or one on a cell that already holds data, never flips the
// blocking IsLoading state. Any in-flight older fetch is superseded.
func (c *Cell) BeginFetch(silent bool) uint64 {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state.IsRefreshing = true
	c.state.IsResetting = false
	if len(c.state.Data) == 0 && !silent {
		c.state.IsLoading = true
	}
	c.mu.Unlock()

	c.notify()
	return gen
}

// ApplyPartial merges a progressive accumulator result. The first
// partial clears IsLoading so the view renders before the stream
// completes. Returns false when the fetch was superseded.
func (c *Cell) ApplyPartial(gen uint64, items []types.Resource) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.state.Data = append([]types.Resource(nil), items...)
	c.state.LastUpdated = time.Now()
	c.state.IsLoading = false
	c.mu.Unlock()

	c.notify()
	return true
}

// ApplySuccess installs the final result of a successful fetch. An
// empty items slice is honored: the source itself confirmed zero
// items, which overrides prior data. Returns false when superseded.
func (c *Cell) ApplySuccess(gen uint64, items []types.Resource) bool {
	now := time.Now()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.state.Data = append([]types.Resource(nil), items...)
	c.state.LastUpdated = now
	c.state.LastRefresh = now
	c.state.IsLoading = false
	c.state.IsRefreshing = false
	c.state.ConsecutiveFailures = 0
	c.state.Err = ""
	c.mu.Unlock()

	c.notify()
	return true
}

// ApplyFailure records chain exhaustion. Existing data and LastUpdated
// are left untouched; only the failure counter, LastRefresh and (for
// required families) the visible error move. Returns false when
// superseded.
func (c *Cell) ApplyFailure(gen uint64, msg string, visible bool) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.state.ConsecutiveFailures++
	c.state.LastRefresh = time.Now()
	c.state.IsLoading = false
	c.state.IsRefreshing = false
	if visible {
		c.state.Err = msg
	} else {
		c.state.Err = ""
	}
	c.mu.Unlock()

	c.notify()
	return true
}

// ApplyFallback installs last-resort data (canned demo records) after
// chain exhaustion. It refuses to overwrite existing data and keeps
// the failure accounting from ApplyFailure intact.
func (c *Cell) ApplyFallback(gen uint64, items []types.Resource) bool {
	c.mu.Lock()
	if gen != c.generation || len(c.state.Data) > 0 {
		c.mu.Unlock()
		return false
	}
	c.state.Data = append([]types.Resource(nil), items...)
	c.state.LastUpdated = time.Now()
	c.state.IsLoading = false
	c.mu.Unlock()

	c.notify()
	return true
}

// Reset force-clears the cell for a mode transition: empty data,
// blocking loading state, transient IsResetting flag. The generation
// is bumped so any in-flight fetch result is discarded.
func (c *Cell) Reset() {
	c.mu.Lock()
	c.generation++
	c.state.Data = nil
	c.state.IsLoading = true
	c.state.IsRefreshing = false
	c.state.IsResetting = true
	c.state.ConsecutiveFailures = 0
	c.state.Err = ""
	c.mu.Unlock()

	c.notify()
}

// FinishReset clears the transient IsResetting flag. Safe to call any
// number of times.
func (c *Cell) FinishReset() {
	c.mu.Lock()
	if !c.state.IsResetting {
		c.mu.Unlock()
		return
	}
	c.state.IsResetting = false
	c.mu.Unlock()

	c.notify()
}
