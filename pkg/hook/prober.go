package hook

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/log"
)

const (
	probeInterval = 15 * time.Second
	probeTimeout  = 3 * time.Second
)

// agentProber keeps the agent liveness flag current by polling the
// local agent's health endpoint. A successful data fetch also sets the
// flag, so the prober mostly matters for recovery detection while the
// agent is down and the chain is skipping it.
type agentProber struct {
	url    string
	client *http.Client
	alive  *atomic.Bool
	logger zerolog.Logger
}

func newAgentProber(baseURL string, alive *atomic.Bool) *agentProber {
	return &agentProber{
		url:    baseURL + "/healthz",
		client: &http.Client{Timeout: probeTimeout},
		alive:  alive,
		logger: log.WithComponent("agent-probe"),
	}
}

// Start probes once immediately, then on an interval until ctx ends.
func (p *agentProber) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *agentProber) run(ctx context.Context) {
	p.probe(ctx)

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *agentProber) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.setAlive(false)
		return
	}
	resp.Body.Close()

	p.setAlive(resp.StatusCode >= 200 && resp.StatusCode < 300)
}

func (p *agentProber) setAlive(alive bool) {
	if p.alive.Swap(alive) != alive {
		p.logger.Info().Bool("alive", alive).Msg("Agent liveness changed")
	}
}
