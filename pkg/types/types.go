package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScopeAll is the sentinel used when a query is not narrowed to a
// specific cluster or namespace.
const ScopeAll = "all"

// Scope narrows a resource family query to a cluster and namespace.
// Empty fields are treated as ScopeAll.
type Scope struct {
	Cluster   string `json:"cluster"`
	Namespace string `json:"namespace"`
}

// Normalize returns the scope with empty fields replaced by ScopeAll.
func (s Scope) Normalize() Scope {
	if s.Cluster == "" {
		s.Cluster = ScopeAll
	}
	if s.Namespace == "" {
		s.Namespace = ScopeAll
	}
	return s
}

// Key builds the cache key for a family under this scope,
// e.g. "pods|clusterA|all".
func (s Scope) Key(family string) string {
	n := s.Normalize()
	return fmt.Sprintf("%s|%s|%s", family, n.Cluster, n.Namespace)
}

// Matches reports whether a resource falls inside this scope.
func (s Scope) Matches(r *Resource) bool {
	n := s.Normalize()
	if n.Cluster != ScopeAll && r.Cluster != n.Cluster {
		return false
	}
	if n.Namespace != ScopeAll && r.Namespace != n.Namespace {
		return false
	}
	return true
}

// Resource is one item of a fetched list. The Kubernetes meaning of the
// payload is opaque to the sync layer; only the identity, ordering and
// accounting fields below are interpreted.
type Resource struct {
	Name      string            `json:"name"`
	Cluster   string            `json:"cluster"`
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`

	// Metrics carries numeric accounting used for ordering and
	// dedup consistency checks (e.g. "restarts", "gpu_allocated",
	// "gpu_capacity").
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Raw is the untouched source payload, passed through to views.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Metric returns a named metric value, or 0 when absent.
func (r *Resource) Metric(name string) float64 {
	if r.Metrics == nil {
		return 0
	}
	return r.Metrics[name]
}

// Identity returns the dedup identity of a resource. The cluster label
// is deliberately excluded: the same physical resource can be
// enumerated under both a short alias and a long context path.
func (r *Resource) Identity() string {
	return r.Namespace + "/" + r.Name
}

// SortPolicy selects the ordering applied to a materialized list.
type SortPolicy string

const (
	SortNone         SortPolicy = ""
	SortByName       SortPolicy = "name"
	SortRestartsDesc SortPolicy = "restarts-desc"
)

// Family describes the cache and fetch policy for one class of fetched
// entity (pods, clusters, gpu-nodes, operators, ...).
type Family struct {
	// Name identifies the family and its storage key.
	Name string `json:"name" yaml:"name"`

	// Required families surface fetch errors to views. Optional
	// families stay error-silent and fall back to stale data.
	Required bool `json:"required" yaml:"required"`

	// Retry enables the capped post-failure retry schedule.
	Retry bool `json:"retry" yaml:"retry"`

	// Persist mirrors successful fetches to the durable store.
	Persist bool `json:"persist" yaml:"persist"`

	// DedupeByName collapses records that describe the same physical
	// resource under different cluster labels (GPU nodes).
	DedupeByName bool `json:"dedupe_by_name" yaml:"dedupe_by_name"`

	// PreferAuthoritative lets a later complete source replace
	// partial streaming results instead of only filling gaps.
	PreferAuthoritative bool `json:"prefer_authoritative" yaml:"prefer_authoritative"`

	Sort SortPolicy `json:"sort" yaml:"sort"`

	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// Per-source budgets. Expensive enumerations (operators, Helm
	// releases) carry larger agent timeouts.
	AgentTimeout  time.Duration `json:"agent_timeout" yaml:"agent_timeout"`
	StreamTimeout time.Duration `json:"stream_timeout" yaml:"stream_timeout"`
	RestTimeout   time.Duration `json:"rest_timeout" yaml:"rest_timeout"`
}

// Default budgets applied by WithDefaults.
const (
	DefaultPollInterval  = 30 * time.Second
	DefaultAgentTimeout  = 15 * time.Second
	DefaultStreamTimeout = 60 * time.Second
	DefaultRestTimeout   = 15 * time.Second
)

// WithDefaults fills zero-valued policy fields.
func (f Family) WithDefaults() Family {
	if f.PollInterval <= 0 {
		f.PollInterval = DefaultPollInterval
	}
	if f.AgentTimeout <= 0 {
		f.AgentTimeout = DefaultAgentTimeout
	}
	if f.StreamTimeout <= 0 {
		f.StreamTimeout = DefaultStreamTimeout
	}
	if f.RestTimeout <= 0 {
		f.RestTimeout = DefaultRestTimeout
	}
	return f
}

// Validate checks a family definition for obvious misconfiguration.
func (f Family) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("family name is required")
	}
	switch f.Sort {
	case SortNone, SortByName, SortRestartsDesc:
	default:
		return fmt.Errorf("family %s: unknown sort policy %q", f.Name, f.Sort)
	}
	return nil
}

// Batch is one partial result emitted by a streaming source, keyed by
// the cluster it originated from.
type Batch struct {
	Cluster string     `json:"cluster"`
	Items   []Resource `json:"items"`
}
