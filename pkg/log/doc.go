/*
Package log provides structured logging for Fleetglass using zerolog.

The log package wraps zerolog with a small global-logger surface and a
set of domain-specific child-logger helpers. Every component of the
sync layer logs through this package so output format and level are
controlled in one place.

# Architecture

	┌─────────────────── LOGGING ───────────────────┐
	│                                                │
	│  Init(Config) ──► global zerolog.Logger        │
	│                                                │
	│  WithComponent("fetch")  ─┐   child loggers    │
	│  WithFamily("pods")       ├─► with bound       │
	│  WithCacheKey("pods|a|b") ┘   fields           │
	│                                                │
	│  Output: console (dev) or JSON (daemon)        │
	└────────────────────────────────────────────────┘

# Usage

Initialization (done once, in the daemon entrypoint):

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Component loggers:

	logger := log.WithComponent("fetch")
	logger.Debug().
		Str("cache_key", key).
		Str("source", src.Name()).
		Msg("source failed, falling through")

# Field Conventions

  - component: the package doing the logging (fetch, cache, poll, ...)
  - family: resource family name
  - cache_key: full family|cluster|namespace key
  - source: source chain entry (agent, stream, rest, demo)
  - kind: classified error kind on failures

# Log Levels

  - debug: per-attempt source chain decisions, batch merges
  - info: lifecycle (hooks mounted, resets broadcast, demo toggled)
  - warn: chain exhaustion with stale data retained
  - error: required-family failures, store corruption

# See Also

  - pkg/fetch for the heaviest consumer of chain-decision logging
  - zerolog: https://github.com/rs/zerolog
*/
package log
