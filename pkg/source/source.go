package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// Source is one entry in a resource family's fallback chain. Sources
// are tried in priority order; the first one whose Available gate
// passes and whose Fetch succeeds wins the refresh cycle. Success is
// defined by the source, not the payload: zero items from a healthy
// source is a confirmed-empty answer.
type Source interface {
	// Name labels the source in logs and metrics (agent, stream,
	// rest, demo).
	Name() string

	// Available reports whether the source is worth attempting. A
	// non-nil error (wrapping types.ErrSourceUnavailable) skips the
	// source without counting as a fetch failure.
	Available(ctx context.Context) error

	// Fetch returns the complete item list for a family and scope.
	Fetch(ctx context.Context, family types.Family, scope types.Scope) ([]types.Resource, error)
}

// StreamSource is a Source that can deliver partial per-cluster
// batches before the full result is known.
type StreamSource interface {
	Source

	// FetchStream emits each batch as it arrives and returns the
	// full concatenation when the stream completes. A mid-stream
	// failure returns whatever was accumulated alongside the error.
	FetchStream(ctx context.Context, family types.Family, scope types.Scope, emit func(types.Batch)) ([]types.Resource, error)
}

// scopeQuery encodes a scope as request parameters, omitting the
// "all" sentinel dimensions.
func scopeQuery(scope types.Scope) url.Values {
	q := url.Values{}
	n := scope.Normalize()
	if n.Cluster != types.ScopeAll {
		q.Set("cluster", n.Cluster)
	}
	if n.Namespace != types.ScopeAll {
		q.Set("namespace", n.Namespace)
	}
	return q
}

// decodeItems unwraps the standard list envelope: an object keyed by
// the resource name ({"pods": [...]}), with "items" accepted as a
// generic alias.
func decodeItems(family string, body []byte) ([]types.Resource, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrParse, err)
	}

	raw, ok := envelope[family]
	if !ok {
		raw, ok = envelope["items"]
	}
	if !ok {
		return nil, fmt.Errorf("%w: response has no %q or \"items\" field", types.ErrParse, family)
	}

	var items []types.Resource
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrParse, err)
	}
	return items, nil
}

// classifyRequestError maps an http.Client error onto the taxonomy,
// distinguishing budget exhaustion from supersession from plain
// transport failure.
func classifyRequestError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", types.ErrCancelled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", types.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
}
