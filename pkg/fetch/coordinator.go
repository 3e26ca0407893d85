package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/cache"
	"github.com/fleetglass/fleetglass/pkg/log"
	"github.com/fleetglass/fleetglass/pkg/metrics"
	"github.com/fleetglass/fleetglass/pkg/source"
	"github.com/fleetglass/fleetglass/pkg/store"
	"github.com/fleetglass/fleetglass/pkg/types"
)

// Retry schedule for families that opt in: two extra attempts, 2s then
// 5s after the failed cycle.
const (
	retryInitialInterval = 2 * time.Second
	retryMultiplier      = 2.5
	retryMaxAttempts     = 2
)

// Coordinator is the per-key fetch state machine. It decides between
// blocking and silent refreshes, walks the source chain, applies the
// merge policy, and is the only writer of its cache cell.
type Coordinator struct {
	family types.Family
	scope  types.Scope
	key    string
	cell   *cache.Cell
	chain  []source.Source
	demo   *source.DemoSource
	st     store.Store

	// demoMode reads the global demo-mode flag. While active the
	// chain is skipped and canned data is authoritative.
	demoMode func() bool

	logger zerolog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	retrying bool
}

// NewCoordinator wires a coordinator for one family+scope key. st may
// be nil when the family does not persist.
func NewCoordinator(family types.Family, scope types.Scope, cell *cache.Cell, chain []source.Source, demoSrc *source.DemoSource, st store.Store, demoMode func() bool) *Coordinator {
	key := scope.Key(family.Name)
	return &Coordinator{
		family:   family,
		scope:    scope.Normalize(),
		key:      key,
		cell:     cell,
		chain:    chain,
		demo:     demoSrc,
		st:       st,
		demoMode: demoMode,
		logger:   log.WithCacheKey(key),
	}
}

// Key returns the cache key this coordinator serves.
func (c *Coordinator) Key() string {
	return c.key
}

// Refresh runs one fetch cycle. A newer Refresh for the same key
// supersedes any in-flight one: the older context is cancelled and its
// late results are discarded by the cell's generation check. silent
// suppresses the blocking loading state (background polls, mode
// transitions).
func (c *Coordinator) Refresh(ctx context.Context, silent bool) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	gen := c.cell.BeginFetch(silent)
	timer := metrics.NewTimer()

	// Demo mode wins outright; no chain, no persistence.
	if c.demoMode != nil && c.demoMode() {
		items, _ := c.demo.Fetch(fctx, c.family, c.scope)
		if c.cell.ApplySuccess(gen, Finalize(items, c.family)) {
			metrics.FetchAttemptsTotal.WithLabelValues(c.family.Name, "demo", "success").Inc()
		}
		return
	}

	outcome := c.walkChain(fctx, gen)
	timer.ObserveDuration(metrics.FetchDuration.WithLabelValues(c.family.Name))

	// Cancelled cycles were superseded and schedule nothing; the
	// retry loop self-terminates once the failure counter clears.
	if outcome == chainExhausted {
		c.scheduleRetry(ctx)
	}
}

// Stop cancels any in-flight fetch and pending retry.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

type chainOutcome int

const (
	chainSuccess chainOutcome = iota
	chainCancelled
	chainExhausted
)

// walkChain tries each source in priority order and applies the first
// usable answer. Partial streaming results are retained and later
// sources only fill gaps around them, unless the family prefers an
// authoritative single source.
func (c *Coordinator) walkChain(ctx context.Context, gen uint64) chainOutcome {
	var (
		partial []types.Resource
		lastErr error
	)

	for _, src := range c.chain {
		if err := src.Available(ctx); err != nil {
			c.logger.Debug().Str("source", src.Name()).Msg("source gated off, skipping")
			metrics.FetchAttemptsTotal.WithLabelValues(c.family.Name, src.Name(), "skipped").Inc()
			continue
		}

		items, streamPartial, err := c.fetchFrom(ctx, gen, src, partial)
		if err == nil {
			acc := NewAccumulator(c.family)
			acc.Prime(partial)
			acc.Prime(items)
			final := acc.Items()
			if c.cell.ApplySuccess(gen, final) {
				c.persist(final)
			}
			metrics.FetchAttemptsTotal.WithLabelValues(c.family.Name, src.Name(), "success").Inc()
			return chainSuccess
		}

		if types.IsCancelled(err) {
			metrics.FetchAttemptsTotal.WithLabelValues(c.family.Name, src.Name(), "cancelled").Inc()
			return chainCancelled
		}

		kind := types.ClassifyError(err)
		c.logger.Debug().
			Str("source", src.Name()).
			Str("kind", string(kind)).
			Err(err).
			Msg("source failed, falling through")
		metrics.FetchAttemptsTotal.WithLabelValues(c.family.Name, src.Name(), string(kind)).Inc()
		metrics.ChainFallthroughsTotal.WithLabelValues(c.family.Name, src.Name()).Inc()
		lastErr = err

		// A cut stream leaves what it delivered; later sources fill
		// the gaps rather than replace it.
		if len(streamPartial) > 0 && !c.family.PreferAuthoritative {
			partial = streamPartial
		}
	}

	msg := "all sources unavailable"
	if lastErr != nil {
		msg = lastErr.Error()
	}
	if c.family.Required {
		c.logger.Error().Str("reason", msg).Msg("fetch chain exhausted")
	} else {
		c.logger.Warn().Str("reason", msg).Msg("fetch chain exhausted, keeping stale data")
	}

	c.cell.ApplyFailure(gen, msg, c.family.Required)

	// A cell that never had data falls back to canned records rather
	// than an empty card. Failure accounting above stays intact.
	if len(c.cell.Snapshot().Data) == 0 {
		if items, err := c.demo.Fetch(ctx, c.family, c.scope); err == nil && len(items) > 0 {
			c.cell.ApplyFallback(gen, Finalize(items, c.family))
		}
	}
	return chainExhausted
}

// fetchFrom executes one source. Streaming sources merge every batch
// into the cell as it arrives; request/response sources return in one
// piece. On a mid-stream failure the accumulated items come back as
// streamPartial so the chain can retain them.
func (c *Coordinator) fetchFrom(ctx context.Context, gen uint64, src source.Source, partial []types.Resource) (items, streamPartial []types.Resource, err error) {
	ss, streaming := src.(source.StreamSource)
	if !streaming {
		items, err = src.Fetch(ctx, c.family, c.scope)
		return items, nil, err
	}

	acc := NewAccumulator(c.family)
	acc.Prime(partial)
	_, err = ss.FetchStream(ctx, c.family, c.scope, func(b types.Batch) {
		merged := acc.Add(b)
		c.cell.ApplyPartial(gen, merged)
	})
	if err != nil {
		if acc.Len() > len(partial) {
			streamPartial = acc.Items()
		}
		return nil, streamPartial, err
	}
	return acc.Items(), nil, nil
}

// persist mirrors a successful result to the durable store. Skipped
// for non-persisting families and whenever demo mode is active, so
// canned records never pollute the real-cluster cache.
func (c *Coordinator) persist(items []types.Resource) {
	if c.st == nil || !c.family.Persist {
		return
	}
	if c.demoMode != nil && c.demoMode() {
		return
	}
	err := c.st.Save(c.family.Name, store.Entry{
		Key:       c.key,
		Timestamp: time.Now(),
		Data:      items,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist snapshot")
	}
}

// scheduleRetry arms the capped retry schedule after an exhausted
// cycle for families that define one. Retries are silent, stop as
// soon as data is obtained, and never run in demo mode.
func (c *Coordinator) scheduleRetry(ctx context.Context) {
	if !c.family.Retry {
		return
	}
	if c.demoMode != nil && c.demoMode() {
		return
	}

	c.mu.Lock()
	if c.retrying {
		c.mu.Unlock()
		return
	}
	c.retrying = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.retrying = false
			c.mu.Unlock()
		}()

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = retryInitialInterval
		bo.Multiplier = retryMultiplier
		bo.RandomizationFactor = 0

		for attempt := 0; attempt < retryMaxAttempts; attempt++ {
			delay := bo.NextBackOff()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			if c.demoMode != nil && c.demoMode() {
				return
			}
			c.Refresh(ctx, true)
			if c.cell.Snapshot().ConsecutiveFailures == 0 {
				return
			}
		}
	}()
}
