/*
Package source implements the transports of the fallback chain.

Each resource family is fetched by walking an ordered list of sources
until one yields a usable answer. The sources differ wildly in speed,
reach and reliability; this package gives them one contract so the
fetch coordinator can stay transport-agnostic.

# Architecture

	┌───────────────────── SOURCE CHAIN ─────────────────────┐
	│                                                         │
	│  1. AgentSource        local privileged agent           │
	│     - gate: external liveness flag                      │
	│     - GET <agent>/<family>?cluster=&namespace=          │
	│     - fast, direct cluster access, often absent         │
	│                                                         │
	│  2. StreamingSource    multi-cluster SSE                │
	│     - gate: session token (demo sentinel disables)      │
	│     - GET <api>/api/v1/stream/<family>                  │
	│     - emits (cluster, items) batches progressively      │
	│                                                         │
	│  3. RestSource         plain authenticated fallback     │
	│     - gate: session token (demo sentinel disables)      │
	│     - GET <api>/api/v1/<family>                         │
	│                                                         │
	│  4. DemoSource         canned records                   │
	│     - always available; consulted only by policy        │
	└─────────────────────────────────────────────────────────┘

# The Availability Gate

Available is consulted before any network traffic. A gated-off source
(dead agent flag, missing or demo session token) is skipped silently:
it neither counts as a failure nor delays the chain. This is what
keeps a dashboard with no local agent from paying agent timeouts on
every poll.

# Success Semantics

Success is "the source answered", not "the source returned items". An
HTTP 2xx with an empty list is a confirmed-empty answer that callers
must honor over stale data. Conversely any error, timeout or malformed
payload falls through to the next source without touching the cache.

The agent source additionally reports successes to the external
liveness tracker, which is how the flag recovers after an agent
restart.

# Timeouts

Every Fetch bounds itself with the per-family budget for its
transport (AgentTimeout, StreamTimeout, RestTimeout). A timeout is
returned as types.ErrTimeout and is indistinguishable from any other
failure for fallthrough purposes.

# The Wire Envelope

List responses use the standard envelope, keyed by the resource name:

	{"pods": [ {...}, {...} ]}

with "items" accepted as a generic alias. The stream endpoint frames
batches as server-sent events:

	event: batch
	data: {"cluster": "prod-east", "items": [ ... ]}

	event: complete
	data: done

An "error" event aborts the stream; whatever was accumulated is
returned alongside the error so the coordinator can retain partial
results.

# Error Mapping

All failures wrap the pkg/types taxonomy:

  - gate refusal          → ErrSourceUnavailable
  - budget exceeded       → ErrTimeout
  - network / non-2xx     → ErrTransport
  - bad JSON / envelope   → ErrParse
  - context cancellation  → ErrCancelled (supersession, not failure)

# Usage

	chain := []source.Source{
		source.NewAgentSource(agentURL, agentAlive, agentReport),
		source.NewStreamingSource(apiURL, session.Token),
		source.NewRestSource(apiURL, session.Token),
	}

	for _, src := range chain {
		if err := src.Available(ctx); err != nil {
			continue
		}
		items, err := src.Fetch(ctx, family, scope)
		if err == nil {
			return items, nil
		}
	}

# See Also

  - pkg/fetch for the chain-walking policy around these transports
  - pkg/session for the token storage behind the gates
  - pkg/demo for the canned records behind DemoSource
*/
package source
