package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglass/fleetglass/pkg/types"
)

func named(names ...string) []types.Resource {
	out := make([]types.Resource, 0, len(names))
	for _, n := range names {
		out = append(out, types.Resource{Name: n, Cluster: "clusterA"})
	}
	return out
}

func TestProgressiveMergeOrder(t *testing.T) {
	fam := types.Family{Name: "pods", Sort: types.SortByName}
	acc := NewAccumulator(fam)

	// Batches arrive out of name order across clusters.
	merged := acc.Add(types.Batch{Cluster: "clusterX", Items: []types.Resource{
		{Name: "p1", Cluster: "clusterX"},
		{Name: "p3", Cluster: "clusterX"},
	}})
	assert.Equal(t, []string{"p1", "p3"}, namesOf(merged))

	merged = acc.Add(types.Batch{Cluster: "clusterY", Items: []types.Resource{
		{Name: "p2", Cluster: "clusterY"},
	}})
	assert.Equal(t, []string{"p1", "p2", "p3"}, namesOf(merged),
		"list is sorted after every merge, not only at completion")
}

func TestMergeReplacesReEmittedCluster(t *testing.T) {
	fam := types.Family{Name: "pods"}
	acc := NewAccumulator(fam)

	acc.Add(types.Batch{Cluster: "clusterA", Items: []types.Resource{
		{Name: "p1", Cluster: "clusterA", Metrics: map[string]float64{"restarts": 1}},
	}})
	merged := acc.Add(types.Batch{Cluster: "clusterA", Items: []types.Resource{
		{Name: "p1", Cluster: "clusterA", Metrics: map[string]float64{"restarts": 2}},
	}})

	require.Len(t, merged, 1)
	assert.Equal(t, float64(2), merged[0].Metric("restarts"))
}

func TestSortRestartsDesc(t *testing.T) {
	items := []types.Resource{
		{Name: "calm", Metrics: map[string]float64{"restarts": 0}},
		{Name: "flappy", Metrics: map[string]float64{"restarts": 12}},
		{Name: "warm", Metrics: map[string]float64{"restarts": 3}},
	}
	SortItems(items, types.SortRestartsDesc)
	assert.Equal(t, []string{"flappy", "warm", "calm"}, namesOf(items))
}

func TestGPUNodeDedup(t *testing.T) {
	fam := types.Family{Name: "gpu-nodes", DedupeByName: true, Sort: types.SortByName}

	final := Finalize([]types.Resource{
		{Name: "gpu-node-1", Cluster: "default/api-fmaas-vllm-d-ctx", Metrics: map[string]float64{"gpu_capacity": 8, "gpu_allocated": 6}},
		{Name: "gpu-node-1", Cluster: "vllm-d", Metrics: map[string]float64{"gpu_capacity": 8, "gpu_allocated": 6}},
	}, fam)

	require.Len(t, final, 1, "one physical node under two labels collapses")
	assert.Equal(t, "vllm-d", final[0].Cluster, "the shorter label is canonical")
}

func TestPreferredDuplicate(t *testing.T) {
	tests := []struct {
		name     string
		a, b     types.Resource
		expected string
	}{
		{
			name:     "shorter label wins",
			a:        types.Resource{Cluster: "default/api-fmaas-vllm-d-ctx"},
			b:        types.Resource{Cluster: "vllm-d"},
			expected: "vllm-d",
		},
		{
			name:     "shorter label wins regardless of order",
			a:        types.Resource{Cluster: "vllm-d"},
			b:        types.Resource{Cluster: "default/api-fmaas-vllm-d-ctx"},
			expected: "vllm-d",
		},
		{
			name: "equal labels, consistent accounting wins",
			a: types.Resource{Cluster: "east-1", Metrics: map[string]float64{
				"gpu_capacity": 4, "gpu_allocated": 9}},
			b: types.Resource{Cluster: "west-1", Metrics: map[string]float64{
				"gpu_capacity": 8, "gpu_allocated": 6}},
			expected: "west-1",
		},
		{
			name:     "all else equal the incumbent stays",
			a:        types.Resource{Cluster: "east-1"},
			b:        types.Resource{Cluster: "west-1"},
			expected: "east-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreferredDuplicate(tt.a, tt.b)
			assert.Equal(t, tt.expected, got.Cluster)
		})
	}
}

func TestPrimeThenFill(t *testing.T) {
	fam := types.Family{Name: "pods", Sort: types.SortByName}
	acc := NewAccumulator(fam)

	// Partial stream results already held.
	acc.Prime([]types.Resource{
		{Name: "p1", Cluster: "clusterX"},
	})
	// Fallback source fills the gap without discarding the partial.
	merged := acc.Add(types.Batch{Items: []types.Resource{
		{Name: "p2", Cluster: "clusterY"},
	}})
	assert.Equal(t, []string{"p1", "p2"}, namesOf(merged))
}

func TestAccumulatorItemsIsACopy(t *testing.T) {
	acc := NewAccumulator(types.Family{Name: "pods"})
	acc.Prime(named("p1"))

	got := acc.Items()
	got[0].Name = "mutated"
	assert.Equal(t, "p1", acc.Items()[0].Name)
}

func namesOf(items []types.Resource) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.Name)
	}
	return out
}
