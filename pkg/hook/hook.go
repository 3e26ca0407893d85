package hook

import (
	"context"
	"sync"

	"github.com/fleetglass/fleetglass/pkg/cache"
	"github.com/fleetglass/fleetglass/pkg/fetch"
)

// Hook is one view's handle on a cache key. It reads and subscribes to
// the shared cell; fetching, polling and transitions happen in the
// engine underneath.
type Hook struct {
	engine *Engine
	key    string
	cell   *cache.Cell
	coord  *fetch.Coordinator

	closeOnce sync.Once
}

// Key returns the cache key this hook is mounted on.
func (h *Hook) Key() string {
	return h.key
}

// Snapshot returns the current cell state.
func (h *Hook) Snapshot() cache.State {
	return h.cell.Snapshot()
}

// Subscribe registers a state listener. The listener fires immediately
// with the current state and then on every change, until the returned
// unsubscribe function is called.
func (h *Hook) Subscribe(fn func(cache.State)) func() {
	return h.cell.Subscribe(fn)
}

// Refetch forces a refresh now. Existing data stays visible while the
// refresh runs; only an empty cell shows the loading state.
func (h *Hook) Refetch(ctx context.Context) {
	h.coord.Refresh(ctx, false)
}

// Close releases the hook. The last close for a key stops its poll
// loop and coordinator; cached data stays for the next mount. Closing
// twice is safe.
func (h *Hook) Close() {
	h.closeOnce.Do(func() {
		h.engine.release(h.key)
	})
}
