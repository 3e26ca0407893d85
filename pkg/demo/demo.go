// Package demo provides the canned fleet dataset served in demo mode
// and as last-resort fallback data.
package demo

import (
	"sync"

	"github.com/fleetglass/fleetglass/pkg/types"
)

// TokenSentinel is the session-token value that marks a demo session.
// The stream and REST sources refuse to run under it.
const TokenSentinel = "demo"

// Provider serves canned fleet records for demo mode and for
// last-resort fallback on cells that never obtained real data.
type Provider struct {
	mu       sync.RWMutex
	families map[string][]types.Resource
}

// NewProvider builds a provider preloaded with the stock demo fleet.
func NewProvider() *Provider {
	return &Provider{families: stockFleet()}
}

// SetFamily replaces the canned records for one family (used by tests
// and by deployments shipping their own demo data).
func (p *Provider) SetFamily(family string, items []types.Resource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.families[family] = append([]types.Resource(nil), items...)
}

// Items returns the canned records of a family fitted to a scope. A
// scope that matches canned records directly is filtered; a scope
// pinned to a cluster or namespace the demo fleet does not know is
// served relabeled records instead, so a fallback for a real cluster
// is never empty while the family has canned data at all.
func (p *Provider) Items(family string, scope types.Scope) []types.Resource {
	p.mu.RLock()
	all := p.families[family]
	p.mu.RUnlock()

	scope = scope.Normalize()
	if out := filterScope(all, scope); len(out) > 0 {
		return out
	}

	// Pinned cluster unknown to the demo fleet: keep the namespace
	// filter, relabel the cluster.
	if scope.Cluster != types.ScopeAll {
		nsOnly := types.Scope{Namespace: scope.Namespace}.Normalize()
		if out := filterScope(all, nsOnly); len(out) > 0 {
			for i := range out {
				out[i].Cluster = scope.Cluster
			}
			return out
		}
	}

	// Namespace unknown too: relabel both so the scope always gets a
	// populated card.
	if scope.Namespace != types.ScopeAll && len(all) > 0 {
		out := append([]types.Resource(nil), all...)
		for i := range out {
			if scope.Cluster != types.ScopeAll {
				out[i].Cluster = scope.Cluster
			}
			out[i].Namespace = scope.Namespace
		}
		return out
	}

	return nil
}

func filterScope(all []types.Resource, scope types.Scope) []types.Resource {
	out := make([]types.Resource, 0, len(all))
	for i := range all {
		if scope.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// stockFleet is a small two-cluster fleet covering every family the
// dashboard ships cards for.
func stockFleet() map[string][]types.Resource {
	return map[string][]types.Resource{
		"clusters": {
			{Name: "demo-east", Cluster: "demo-east", Metrics: map[string]float64{"nodes": 4}},
			{Name: "demo-west", Cluster: "demo-west", Metrics: map[string]float64{"nodes": 2}},
		},
		"pods": {
			{Name: "frontend-7d4b9", Cluster: "demo-east", Namespace: "default", Metrics: map[string]float64{"restarts": 0}},
			{Name: "frontend-8c2f1", Cluster: "demo-east", Namespace: "default", Metrics: map[string]float64{"restarts": 2}},
			{Name: "api-5fd88", Cluster: "demo-east", Namespace: "default", Metrics: map[string]float64{"restarts": 7}},
			{Name: "ingest-0", Cluster: "demo-west", Namespace: "pipelines", Metrics: map[string]float64{"restarts": 1}},
		},
		"deployments": {
			{Name: "frontend", Cluster: "demo-east", Namespace: "default", Metrics: map[string]float64{"replicas": 2, "ready": 2}},
			{Name: "api", Cluster: "demo-east", Namespace: "default", Metrics: map[string]float64{"replicas": 1, "ready": 1}},
			{Name: "ingest", Cluster: "demo-west", Namespace: "pipelines", Metrics: map[string]float64{"replicas": 1, "ready": 0}},
		},
		"gpu-nodes": {
			{Name: "gpu-node-1", Cluster: "demo-east", Metrics: map[string]float64{"gpu_capacity": 8, "gpu_allocated": 6}},
			{Name: "gpu-node-2", Cluster: "demo-west", Metrics: map[string]float64{"gpu_capacity": 4, "gpu_allocated": 4}},
		},
		"operators": {
			{Name: "cert-manager", Cluster: "demo-east", Namespace: "cert-manager"},
			{Name: "prometheus-operator", Cluster: "demo-east", Namespace: "monitoring"},
		},
		"security-issues": {
			{Name: "privileged-pod/ingest-0", Cluster: "demo-west", Namespace: "pipelines", Labels: map[string]string{"severity": "high"}},
		},
		"gitops-drift": {
			{Name: "frontend", Cluster: "demo-east", Namespace: "default", Labels: map[string]string{"state": "drifted"}},
		},
	}
}
