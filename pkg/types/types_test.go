package types

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScopeKey(t *testing.T) {
	tests := []struct {
		name     string
		scope    Scope
		family   string
		expected string
	}{
		{
			name:     "fully scoped",
			scope:    Scope{Cluster: "prod-east", Namespace: "kube-system"},
			family:   "pods",
			expected: "pods|prod-east|kube-system",
		},
		{
			name:     "cluster only",
			scope:    Scope{Cluster: "prod-east"},
			family:   "pods",
			expected: "pods|prod-east|all",
		},
		{
			name:     "unscoped",
			scope:    Scope{},
			family:   "clusters",
			expected: "clusters|all|all",
		},
		{
			name:     "explicit all sentinel",
			scope:    Scope{Cluster: "all", Namespace: "all"},
			family:   "gpu-nodes",
			expected: "gpu-nodes|all|all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.scope.Key(tt.family))
		})
	}
}

func TestScopeMatches(t *testing.T) {
	r := &Resource{Name: "web-1", Cluster: "prod-east", Namespace: "default"}

	assert.True(t, Scope{}.Matches(r))
	assert.True(t, Scope{Cluster: "prod-east"}.Matches(r))
	assert.True(t, Scope{Cluster: "prod-east", Namespace: "default"}.Matches(r))
	assert.False(t, Scope{Cluster: "prod-west"}.Matches(r))
	assert.False(t, Scope{Cluster: "prod-east", Namespace: "kube-system"}.Matches(r))
}

func TestFamilyWithDefaults(t *testing.T) {
	f := Family{Name: "pods"}.WithDefaults()

	assert.Equal(t, DefaultPollInterval, f.PollInterval)
	assert.Equal(t, DefaultAgentTimeout, f.AgentTimeout)
	assert.Equal(t, DefaultStreamTimeout, f.StreamTimeout)
	assert.Equal(t, DefaultRestTimeout, f.RestTimeout)

	// Explicit values survive defaulting.
	f = Family{Name: "gpu-nodes", PollInterval: 10 * time.Second, AgentTimeout: 30 * time.Second}.WithDefaults()
	assert.Equal(t, 10*time.Second, f.PollInterval)
	assert.Equal(t, 30*time.Second, f.AgentTimeout)
}

func TestFamilyValidate(t *testing.T) {
	assert.Error(t, Family{}.Validate())
	assert.NoError(t, Family{Name: "pods"}.Validate())
	assert.NoError(t, Family{Name: "pods", Sort: SortByName}.Validate())
	assert.Error(t, Family{Name: "pods", Sort: "by-vibes"}.Validate())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorKind
	}{
		{"source unavailable", ErrSourceUnavailable, KindUnavailable},
		{"wrapped unavailable", fmt.Errorf("agent: %w", ErrSourceUnavailable), KindUnavailable},
		{"timeout", ErrTimeout, KindTimeout},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"transport", fmt.Errorf("GET /pods: %w", ErrTransport), KindTransport},
		{"parse", ErrParse, KindParse},
		{"cancelled", ErrCancelled, KindCancelled},
		{"context cancelled", context.Canceled, KindCancelled},
		{"unknown", errors.New("mystery"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyError(tt.err))
		})
	}
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(context.Canceled))
	assert.False(t, IsCancelled(ErrTimeout))
	assert.False(t, IsCancelled(nil))
}

func TestResourceIdentity(t *testing.T) {
	a := &Resource{Name: "gpu-node-1", Cluster: "vllm-d"}
	b := &Resource{Name: "gpu-node-1", Cluster: "default/api-fmaas-vllm-d-ctx"}

	// Same physical resource under two cluster labels.
	assert.Equal(t, a.Identity(), b.Identity())
}
