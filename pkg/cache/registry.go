package cache

import (
	"sort"
	"strings"
	"sync"
)

// Registry is the process-wide home of cache cells, keyed by
// family|cluster|namespace. Cells are created lazily on first request
// and retained for the life of the process; they are reset, never
// destroyed.
type Registry struct {
	mu    sync.Mutex
	cells map[string]*Cell
}

// NewRegistry creates an empty cell registry.
func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]*Cell)}
}

// Get returns the cell for a key if one exists.
func (r *Registry) Get(key string) (*Cell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cells[key]
	return c, ok
}

// GetOrCreate returns the cell for a key, creating it on first use.
// All callers for the same key share one cell.
func (r *Registry) GetOrCreate(key string) *Cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cells[key]
	if !ok {
		c = newCell(key)
		r.cells[key] = c
	}
	return c
}

// Keys returns all cell keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	keys := make([]string, 0, len(r.cells))
	for k := range r.cells {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// ForFamily returns every cell belonging to a family.
func (r *Registry) ForFamily(family string) []*Cell {
	prefix := family + "|"

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Cell
	for k, c := range r.cells {
		if strings.HasPrefix(k, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// ResetFamily resets every cell of a family and returns how many were
// touched.
func (r *Registry) ResetFamily(family string) int {
	cells := r.ForFamily(family)
	for _, c := range cells {
		c.Reset()
	}
	return len(cells)
}

// FinishResetFamily clears the transient resetting flag on every cell
// of a family.
func (r *Registry) FinishResetFamily(family string) {
	for _, c := range r.ForFamily(family) {
		c.FinishReset()
	}
}

// Snapshot returns the state of every cell, keyed by cache key.
func (r *Registry) Snapshot() map[string]State {
	r.mu.Lock()
	cells := make(map[string]*Cell, len(r.cells))
	for k, c := range r.cells {
		cells[k] = c
	}
	r.mu.Unlock()

	out := make(map[string]State, len(cells))
	for k, c := range cells {
		out[k] = c.Snapshot()
	}
	return out
}
