/*
Package poll schedules the background refresh ticks that keep mounted
cache keys fresh.

# Architecture

	Scheduler
	  ├─ "pods|all|all"        ── timer goroutine ──► fire(key)
	  ├─ "gpu-nodes|all|all"   ── timer goroutine ──► fire(key)
	  └─ "clusters|all|all"    ── timer goroutine ──► fire(key)

One loop per active cache key, created on Start and torn down on Stop.
Start is idempotent for a live key, which is what makes the mount
lifecycle simple for callers: a view remounting the same key a moment
after leaving it will call Start again, and must not end up with two
timers racing each other.

The fire callback is the hook engine's silent refresh. Poll ticks
never flip a cell into the blocking loading state, old data stays
visible until the refresh lands.

# Background Cadence

SetBackgrounded(true) stretches every interval by BackgroundMultiplier.
The change is picked up when each loop next arms its timer rather than
by restarting loops, so flipping the flag is cheap and loses no ticks.

# Usage

	s := poll.NewScheduler(func(key string) {
		engine.RefreshKey(context.Background(), key, true)
	})

	s.Start(key, fam.PollInterval)
	defer s.Stop(key)

	s.SetBackgrounded(true)  // window hidden
	s.SetBackgrounded(false) // window visible again

# See Also

  - pkg/hook for the mount lifecycle driving Start/Stop
  - pkg/fetch for what a silent refresh does to the cell
*/
package poll
