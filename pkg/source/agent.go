package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// AgentSource fetches from the local privileged agent. The agent has
// direct cluster access and is the fastest source when it is running,
// but it is frequently absent; an external liveness flag gates every
// attempt so a dead agent costs nothing.
type AgentSource struct {
	baseURL string
	client  *http.Client

	// alive is the external "agent reachable" flag polled before
	// every attempt.
	alive func() bool

	// reportSuccess tells the liveness tracker that a call worked.
	reportSuccess func()
}

// NewAgentSource creates an agent source. alive and reportSuccess may
// be nil, in which case the agent is always attempted and successes
// are not reported.
func NewAgentSource(baseURL string, alive func() bool, reportSuccess func()) *AgentSource {
	return &AgentSource{
		baseURL:       baseURL,
		client:        &http.Client{},
		alive:         alive,
		reportSuccess: reportSuccess,
	}
}

// Name implements Source.
func (a *AgentSource) Name() string {
	return "agent"
}

// Available implements Source. It consults the external liveness flag
// only; no network traffic.
func (a *AgentSource) Available(ctx context.Context) error {
	if a.alive != nil && !a.alive() {
		return fmt.Errorf("%w: agent liveness flag is down", types.ErrSourceUnavailable)
	}
	return nil
}

// Fetch implements Source. The per-family agent budget bounds the
// call; expensive enumerations configure a larger one.
func (a *AgentSource) Fetch(ctx context.Context, family types.Family, scope types.Scope) ([]types.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, family.AgentTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s", a.baseURL, family.Name)
	if q := scopeQuery(scope).Encode(); q != "" {
		u += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: agent returned %d", types.ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}

	items, err := decodeItems(family.Name, body)
	if err != nil {
		return nil, err
	}

	// An HTTP success is a real answer even with zero items.
	if a.reportSuccess != nil {
		a.reportSuccess()
	}
	return items, nil
}
