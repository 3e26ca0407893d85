package modeswitch

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/log"
	"github.com/fleetglass/fleetglass/pkg/metrics"
)

// ResetFunc clears cached and persisted state for one family. It runs
// synchronously during a broadcast, before any refetch fires.
type ResetFunc func()

// RefetchFunc re-runs the fetch for one cache key.
type RefetchFunc func(ctx context.Context)

// Registry coordinates mode transitions. Components register handlers
// keyed by family (resets) or cache key (refetches); a broadcast runs
// all resets first and schedules the matching refetches after.
type Registry struct {
	mu        sync.RWMutex
	resets    map[string]map[string]ResetFunc
	refetches map[string]map[string]RefetchFunc
	logger    zerolog.Logger
}

// NewRegistry creates an empty transition registry.
func NewRegistry() *Registry {
	return &Registry{
		resets:    make(map[string]map[string]ResetFunc),
		refetches: make(map[string]map[string]RefetchFunc),
		logger:    log.WithComponent("modeswitch"),
	}
}

// RegisterCacheReset registers a reset handler for a family and returns
// an unregister function. Unregistering twice is safe.
func (r *Registry) RegisterCacheReset(family string, fn ResetFunc) func() {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resets[family] == nil {
		r.resets[family] = make(map[string]ResetFunc)
	}
	r.resets[family][id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.resets[family], id)
	}
}

// RegisterRefetch registers a refetch handler for a cache key and
// returns an unregister function. A key may carry several handlers at
// once; re-registration during rapid remounts never clobbers a live
// handler because each registration has its own id.
func (r *Registry) RegisterRefetch(key string, fn RefetchFunc) func() {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refetches[key] == nil {
		r.refetches[key] = make(map[string]RefetchFunc)
	}
	r.refetches[key][id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.refetches[key], id)
	}
}

// BroadcastReset runs the reset handlers for the given families
// synchronously, then schedules refetches for every registered key in
// those families. By the time BroadcastReset returns, no stale data is
// observable; the refetches repopulate in the background.
func (r *Registry) BroadcastReset(ctx context.Context, families ...string) {
	r.mu.RLock()
	var resetFns []ResetFunc
	for _, family := range families {
		for _, fn := range r.resets[family] {
			resetFns = append(resetFns, fn)
		}
	}
	refs := r.collectRefetches(func(key string) bool {
		fam, _, _ := strings.Cut(key, "|")
		for _, f := range families {
			if fam == f {
				return true
			}
		}
		return false
	})
	r.mu.RUnlock()

	for _, fn := range resetFns {
		fn()
	}
	for _, family := range families {
		metrics.CacheResetsTotal.WithLabelValues(family).Inc()
	}
	r.logger.Info().Strs("families", families).Int("refetches", len(refs)).Msg("Cache reset broadcast")

	go r.runRefetches(ctx, refs)
}

// TriggerRefetchAll schedules refetches for every registered key
// matching keyOrPrefix (exact cache key, family prefix, or "" for all
// keys). Resets are not involved; existing data stays visible while
// the refetches run.
func (r *Registry) TriggerRefetchAll(ctx context.Context, keyOrPrefix string) {
	r.mu.RLock()
	refs := r.collectRefetches(func(key string) bool {
		return keyOrPrefix == "" || key == keyOrPrefix || strings.HasPrefix(key, keyOrPrefix+"|")
	})
	r.mu.RUnlock()

	metrics.RefetchBroadcastsTotal.Inc()
	r.logger.Debug().Str("target", keyOrPrefix).Int("refetches", len(refs)).Msg("Refetch broadcast")

	go r.runRefetches(ctx, refs)
}

// refetchRef identifies one registered handler without pinning its
// function, so dispatch can re-check liveness.
type refetchRef struct {
	key string
	id  string
}

// collectRefetches snapshots the matching handler ids. Caller holds
// r.mu.
func (r *Registry) collectRefetches(match func(key string) bool) []refetchRef {
	var refs []refetchRef
	for key, handlers := range r.refetches {
		if !match(key) {
			continue
		}
		for id := range handlers {
			refs = append(refs, refetchRef{key: key, id: id})
		}
	}
	return refs
}

// runRefetches dispatches a snapshot of handler refs. Each handler is
// looked up again right before it runs: one that unregistered after
// the snapshot was taken must not fire, its owner is gone.
func (r *Registry) runRefetches(ctx context.Context, refs []refetchRef) {
	for _, ref := range refs {
		if ctx.Err() != nil {
			return
		}
		r.mu.RLock()
		fn := r.refetches[ref.key][ref.id]
		r.mu.RUnlock()
		if fn != nil {
			fn(ctx)
		}
	}
}

// ResetHandlerCount returns the number of registered reset handlers.
func (r *Registry) ResetHandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, handlers := range r.resets {
		n += len(handlers)
	}
	return n
}

// RefetchHandlerCount returns the number of registered refetch handlers.
func (r *Registry) RefetchHandlerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, handlers := range r.refetches {
		n += len(handlers)
	}
	return n
}
