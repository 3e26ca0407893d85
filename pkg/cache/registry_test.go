package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateShares(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("pods|clusterA|all")
	b := r.GetOrCreate("pods|clusterA|all")
	assert.Same(t, a, b, "all consumers of a key share one cell")

	c := r.GetOrCreate("pods|clusterB|all")
	assert.NotSame(t, a, c)
}

func TestForFamily(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("pods|clusterA|all")
	r.GetOrCreate("pods|clusterB|default")
	r.GetOrCreate("gpu-nodes|all|all")

	assert.Len(t, r.ForFamily("pods"), 2)
	assert.Len(t, r.ForFamily("gpu-nodes"), 1)
	assert.Empty(t, r.ForFamily("operators"))

	// "pod" must not prefix-match "pods".
	assert.Empty(t, r.ForFamily("pod"))
}

func TestResetFamily(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("pods|clusterA|all")
	b := r.GetOrCreate("pods|clusterB|all")
	other := r.GetOrCreate("clusters|all|all")

	a.ApplySuccess(a.BeginFetch(false), items("web-1"))
	b.ApplySuccess(b.BeginFetch(false), items("web-2"))
	other.ApplySuccess(other.BeginFetch(false), items("prod-east"))

	n := r.ResetFamily("pods")
	assert.Equal(t, 2, n)

	for _, c := range []*Cell{a, b} {
		s := c.Snapshot()
		assert.Empty(t, s.Data)
		assert.True(t, s.IsResetting)
		assert.True(t, s.IsLoading)
	}
	require.Len(t, other.Snapshot().Data, 1, "other families are untouched")

	r.FinishResetFamily("pods")
	assert.False(t, a.Snapshot().IsResetting)
	assert.False(t, b.Snapshot().IsResetting)
}

func TestKeysAndSnapshot(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("pods|clusterA|all")
	r.GetOrCreate("clusters|all|all")

	assert.Equal(t, []string{"clusters|all|all", "pods|clusterA|all"}, r.Keys())

	snap := r.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "pods|clusterA|all", snap["pods|clusterA|all"].Key)
}
