package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// StreamingSource consumes the multi-cluster SSE endpoint. Batches
// arrive per origin cluster, so a nine-cluster fleet renders the first
// cluster's items while the rest are still being queried.
type StreamingSource struct {
	baseURL string
	client  *http.Client
	token   func() string
}

// NewStreamingSource creates the SSE source. token reads the bearer
// token from durable session storage; an empty or demo-sentinel token
// disables the source.
func NewStreamingSource(baseURL string, token func() string) *StreamingSource {
	return &StreamingSource{
		baseURL: baseURL,
		// No client-level timeout: the stream stays open for the
		// whole fetch. The per-family budget lives on the context.
		client: &http.Client{},
		token:  token,
	}
}

// Name implements Source.
func (s *StreamingSource) Name() string {
	return "stream"
}

// Available implements Source.
func (s *StreamingSource) Available(ctx context.Context) error {
	return checkToken(s.token)
}

// Fetch implements Source by draining the stream without progressive
// emission.
func (s *StreamingSource) Fetch(ctx context.Context, family types.Family, scope types.Scope) ([]types.Resource, error) {
	return s.FetchStream(ctx, family, scope, nil)
}

// FetchStream implements StreamSource. Whatever was accumulated before
// a mid-stream failure is returned alongside the error so the caller
// can keep partial results.
func (s *StreamingSource) FetchStream(ctx context.Context, family types.Family, scope types.Scope, emit func(types.Batch)) ([]types.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, family.StreamTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/api/v1/stream/%s", s.baseURL, family.Name)
	if q := scopeQuery(scope).Encode(); q != "" {
		u += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+s.token())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: stream endpoint returned %d", types.ErrTransport, resp.StatusCode)
	}

	var (
		accumulated []types.Resource
		completed   bool
	)
	err = readSSE(resp.Body, func(ev sseEvent) error {
		switch ev.Event {
		case "batch", "":
			var batch types.Batch
			if err := json.Unmarshal([]byte(ev.Data), &batch); err != nil {
				return fmt.Errorf("%w: %v", types.ErrParse, err)
			}
			accumulated = append(accumulated, batch.Items...)
			if emit != nil {
				emit(batch)
			}
			return nil
		case "complete":
			completed = true
			return io.EOF
		case "error":
			return fmt.Errorf("%w: stream reported %q", types.ErrTransport, ev.Data)
		default:
			// Unknown event types are skipped for forward compat.
			return nil
		}
	})
	if err != nil {
		// readSSE reports scanner failures as transport errors, but a
		// cancelled or expired context is the real cause when set.
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = classifyRequestError(ctx, ctxErr)
		}
		return accumulated, err
	}
	if !completed {
		// The peer closed the connection without the completion
		// signal: treat as a cut stream, keep what arrived.
		return accumulated, fmt.Errorf("%w: stream ended without completion signal", types.ErrTransport)
	}
	return accumulated, nil
}
