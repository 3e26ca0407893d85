package hook

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/cache"
	"github.com/fleetglass/fleetglass/pkg/config"
	"github.com/fleetglass/fleetglass/pkg/demo"
	"github.com/fleetglass/fleetglass/pkg/fetch"
	"github.com/fleetglass/fleetglass/pkg/log"
	"github.com/fleetglass/fleetglass/pkg/metrics"
	"github.com/fleetglass/fleetglass/pkg/modeswitch"
	"github.com/fleetglass/fleetglass/pkg/poll"
	"github.com/fleetglass/fleetglass/pkg/session"
	"github.com/fleetglass/fleetglass/pkg/source"
	"github.com/fleetglass/fleetglass/pkg/store"
	"github.com/fleetglass/fleetglass/pkg/types"
)

// Engine owns the shared sync machinery: the cell registry, the source
// chain, the poll scheduler, the transition registry and the per-key
// fetch coordinators. Views acquire hooks from it; everything else is
// internal wiring.
type Engine struct {
	families    map[string]types.Family
	cells       *cache.Registry
	st          store.Store
	sess        *session.Manager
	transitions *modeswitch.Registry
	scheduler   *poll.Scheduler
	demoProv    *demo.Provider
	demoSrc     *source.DemoSource
	chain       []source.Source
	prober      *agentProber

	demoMode   atomic.Bool
	agentAlive atomic.Bool

	mu     sync.Mutex
	coords map[string]*fetch.Coordinator
	refs   map[string]int
	unregs map[string]func()

	baseCtx context.Context
	cancel  context.CancelFunc
	logger  zerolog.Logger
}

// NewEngine wires an engine from configuration. st may be nil to run
// without persistence; sess supplies the API token for authenticated
// sources.
func NewEngine(cfg *config.Config, st store.Store, sess *session.Manager) *Engine {
	e := &Engine{
		families:    make(map[string]types.Family, len(cfg.Families)),
		cells:       cache.NewRegistry(),
		st:          st,
		sess:        sess,
		transitions: modeswitch.NewRegistry(),
		demoProv:    demo.NewProvider(),
		coords:      make(map[string]*fetch.Coordinator),
		refs:        make(map[string]int),
		unregs:      make(map[string]func()),
		logger:      log.WithComponent("hook"),
	}
	e.baseCtx, e.cancel = context.WithCancel(context.Background())

	for _, fam := range cfg.Families {
		e.families[fam.Name] = fam
	}

	e.demoSrc = source.NewDemoSource(e.demoProv)
	agent := source.NewAgentSource(cfg.AgentURL, e.agentAlive.Load, func() { e.agentAlive.Store(true) })
	stream := source.NewStreamingSource(cfg.APIURL, sess.Token)
	rest := source.NewRestSource(cfg.APIURL, sess.Token)
	e.chain = []source.Source{agent, stream, rest}

	e.scheduler = poll.NewScheduler(e.pollTick)
	e.prober = newAgentProber(cfg.AgentURL, &e.agentAlive)

	// One reset handler per family, alive for the engine's lifetime.
	// A reset invalidates the persisted snapshot along with the cells:
	// after the transition nothing of the previous mode survives, in
	// memory or on disk. Mounted keys are refetched by the broadcast;
	// cells nobody is watching finish their reset immediately so a
	// later mount starts from a clean loading state instead of a stuck
	// resetting one.
	for name := range e.families {
		family := name
		flog := log.WithFamily(family)
		e.transitions.RegisterCacheReset(family, func() {
			if e.st != nil {
				if err := e.st.Delete(family); err != nil {
					flog.Warn().Err(err).Msg("Failed to clear persisted snapshot on reset")
				}
			}
			e.cells.ResetFamily(family)
			e.finishResetForUnmounted(family)
		})
	}

	// Demo sessions restored from disk start in demo mode.
	e.demoMode.Store(sess.IsDemo())

	return e
}

// Start launches background machinery (the agent liveness prober).
func (e *Engine) Start() {
	e.prober.Start(e.baseCtx)
}

// Stop tears down polling, in-flight fetches and the prober. Acquired
// hooks become inert.
func (e *Engine) Stop() {
	e.cancel()
	e.scheduler.StopAll()

	e.mu.Lock()
	defer e.mu.Unlock()
	for key, coord := range e.coords {
		coord.Stop()
		if unreg := e.unregs[key]; unreg != nil {
			unreg()
		}
		delete(e.coords, key)
		delete(e.unregs, key)
		delete(e.refs, key)
	}
}

// Acquire mounts a hook for one family under one scope. The first
// acquisition of a key starts its coordinator, poll loop and initial
// fetch; later acquisitions share them. Callers must Close the hook.
func (e *Engine) Acquire(familyName string, scope types.Scope) (*Hook, error) {
	fam, ok := e.families[familyName]
	if !ok {
		return nil, fmt.Errorf("unknown resource family %q", familyName)
	}

	scope = scope.Normalize()
	key := scope.Key(fam.Name)
	cell := e.cells.GetOrCreate(key)

	e.mu.Lock()
	e.refs[key]++
	first := e.refs[key] == 1
	var coord *fetch.Coordinator
	if first {
		coord = e.startKeyLocked(fam, scope, key, cell)
	} else {
		coord = e.coords[key]
	}
	e.mu.Unlock()

	metrics.HooksActive.Inc()

	if first {
		seeded := e.seed(fam, key, cell)
		// Remounts and seeded mounts refresh silently behind the
		// existing data; only a truly empty key blocks on loading.
		silent := seeded || len(cell.Snapshot().Data) > 0
		go coord.Refresh(e.baseCtx, silent)
	}

	return &Hook{engine: e, key: key, cell: cell, coord: coord}, nil
}

// startKeyLocked creates the coordinator, refetch registration, poll
// loop and gauge subscription for a newly active key. Caller holds e.mu.
func (e *Engine) startKeyLocked(fam types.Family, scope types.Scope, key string, cell *cache.Cell) *fetch.Coordinator {
	coord := fetch.NewCoordinator(fam, scope, cell, e.chain, e.demoSrc, e.st, e.demoMode.Load)
	e.coords[key] = coord

	unregRefetch := e.transitions.RegisterRefetch(key, func(ctx context.Context) {
		coord.Refresh(ctx, false)
	})
	unregGauges := cell.Subscribe(func(s cache.State) {
		metrics.CellItems.WithLabelValues(key).Set(float64(len(s.Data)))
		metrics.CellFailures.WithLabelValues(key).Set(float64(s.ConsecutiveFailures))
	})
	e.unregs[key] = func() {
		unregRefetch()
		unregGauges()
	}

	e.scheduler.Start(key, fam.PollInterval)
	e.logger.Debug().Str("key", key).Msg("Key activated")
	return coord
}

// release drops one reference to a key, tearing down its machinery
// when the last hook closes. The cell and its data stay in the
// registry so a remount renders instantly.
func (e *Engine) release(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refs[key] == 0 {
		return
	}
	e.refs[key]--
	metrics.HooksActive.Dec()
	if e.refs[key] > 0 {
		return
	}

	delete(e.refs, key)
	e.scheduler.Stop(key)
	if coord := e.coords[key]; coord != nil {
		coord.Stop()
		delete(e.coords, key)
	}
	if unreg := e.unregs[key]; unreg != nil {
		unreg()
		delete(e.unregs, key)
	}
	e.logger.Debug().Str("key", key).Msg("Key released")
}

// seed loads the persisted snapshot into an empty cell. Demo mode
// never seeds; canned data must not mix with real snapshots.
func (e *Engine) seed(fam types.Family, key string, cell *cache.Cell) bool {
	if e.st == nil || !fam.Persist || e.demoMode.Load() {
		return false
	}
	entry, err := e.st.Load(fam.Name, key)
	if err != nil {
		if err != store.ErrNotFound {
			e.logger.Warn().Err(err).Str("key", key).Msg("Failed to load persisted snapshot")
		}
		return false
	}
	return cell.Seed(entry.Data, entry.Timestamp)
}

// pollTick is the scheduler callback: a silent refresh of one key.
func (e *Engine) pollTick(key string) {
	e.mu.Lock()
	coord := e.coords[key]
	e.mu.Unlock()
	if coord != nil {
		coord.Refresh(e.baseCtx, true)
	}
}

// SetDemoMode toggles demo mode for the whole engine. A change resets
// every family's cells and persisted snapshots and refetches all
// mounted keys, so no canned item survives into live mode and no live
// item leaks into demo mode.
func (e *Engine) SetDemoMode(on bool) {
	if e.demoMode.Swap(on) == on {
		return
	}
	e.logger.Info().Bool("demo", on).Msg("Demo mode changed")
	e.transitions.BroadcastReset(e.baseCtx, e.familyNames()...)
}

// DemoActive reports whether demo mode is on.
func (e *Engine) DemoActive() bool {
	return e.demoMode.Load()
}

// SetBackgrounded stretches or restores poll cadence.
func (e *Engine) SetBackgrounded(b bool) {
	e.scheduler.SetBackgrounded(b)
}

// RefetchAll schedules refetches for every mounted key matching
// keyOrPrefix ("" for all). Used by the kubeconfig watcher and the
// manual refresh endpoint.
func (e *Engine) RefetchAll(keyOrPrefix string) {
	e.transitions.TriggerRefetchAll(e.baseCtx, keyOrPrefix)
}

// Snapshot returns the state of every cell, keyed by cache key.
func (e *Engine) Snapshot() map[string]cache.State {
	return e.cells.Snapshot()
}

// AgentAlive reports the last probed agent liveness.
func (e *Engine) AgentAlive() bool {
	return e.agentAlive.Load()
}

func (e *Engine) familyNames() []string {
	names := make([]string, 0, len(e.families))
	for name := range e.families {
		names = append(names, name)
	}
	return names
}

// finishResetForUnmounted clears the resetting flag on cells no hook
// is watching; nothing will refetch them, and data arrives on their
// next mount.
func (e *Engine) finishResetForUnmounted(family string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cell := range e.cells.ForFamily(family) {
		if e.refs[cell.Key()] == 0 {
			cell.FinishReset()
		}
	}
}
