package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglass/fleetglass/pkg/types"
)

func items(names ...string) []types.Resource {
	out := make([]types.Resource, 0, len(names))
	for _, n := range names {
		out = append(out, types.Resource{Name: n, Cluster: "clusterA"})
	}
	return out
}

func TestBlockingFirstFetch(t *testing.T) {
	c := newCell("pods|clusterA|all")

	gen := c.BeginFetch(false)
	s := c.Snapshot()
	assert.True(t, s.IsLoading, "first fetch on an empty cell blocks")
	assert.True(t, s.IsRefreshing)

	require.True(t, c.ApplySuccess(gen, items("web-1", "web-2")))
	s = c.Snapshot()
	assert.False(t, s.IsLoading)
	assert.False(t, s.IsRefreshing)
	assert.Len(t, s.Data, 2)
	assert.Equal(t, 0, s.ConsecutiveFailures)
}

func TestSilentRefreshDoesNotBlock(t *testing.T) {
	c := newCell("pods|clusterA|all")
	c.ApplySuccess(c.BeginFetch(false), items("web-1"))

	c.BeginFetch(true)
	s := c.Snapshot()
	assert.False(t, s.IsLoading, "silent refresh must not flicker the spinner")
	assert.True(t, s.IsRefreshing)
	assert.Len(t, s.Data, 1, "existing data stays visible during refresh")
}

func TestNoRegressionToEmpty(t *testing.T) {
	c := newCell("pods|clusterA|all")
	c.ApplySuccess(c.BeginFetch(false), items("web-1", "web-2", "web-3"))

	gen := c.BeginFetch(true)
	require.True(t, c.ApplyFailure(gen, "all sources failed", false))

	s := c.Snapshot()
	assert.Len(t, s.Data, 3, "failure must never erase displayed data")
	assert.Equal(t, 1, s.ConsecutiveFailures)
	assert.Empty(t, s.Err, "optional families stay error-silent")
}

func TestConfirmedEmptyIsHonored(t *testing.T) {
	c := newCell("pods|clusterA|all")
	c.ApplySuccess(c.BeginFetch(false), items("web-1", "web-2"))

	// A source that succeeded with zero items is a real answer.
	gen := c.BeginFetch(true)
	require.True(t, c.ApplySuccess(gen, nil))
	assert.Empty(t, c.Snapshot().Data)
}

func TestFailureAccounting(t *testing.T) {
	c := newCell("pods|clusterA|all")

	for i := 1; i <= FailureThreshold; i++ {
		c.ApplyFailure(c.BeginFetch(false), "boom", true)
		assert.Equal(t, i, c.Snapshot().ConsecutiveFailures)
		assert.False(t, c.Snapshot().IsFailed())
	}
	c.ApplyFailure(c.BeginFetch(false), "boom", true)
	s := c.Snapshot()
	assert.True(t, s.IsFailed())
	assert.Equal(t, "boom", s.Err)

	// Any success resets the counter.
	c.ApplySuccess(c.BeginFetch(false), items("web-1"))
	s = c.Snapshot()
	assert.Equal(t, 0, s.ConsecutiveFailures)
	assert.Empty(t, s.Err)
}

func TestLastRefreshMovesOnFailure(t *testing.T) {
	c := newCell("pods|clusterA|all")
	c.ApplySuccess(c.BeginFetch(false), items("web-1"))
	updated := c.Snapshot().LastUpdated

	time.Sleep(5 * time.Millisecond)
	c.ApplyFailure(c.BeginFetch(true), "boom", false)

	s := c.Snapshot()
	assert.True(t, s.LastRefresh.After(updated), "failed attempts still move LastRefresh")
	assert.True(t, s.LastUpdated.Equal(updated), "LastUpdated only moves on success")
}

func TestSupersededFetchIsDiscarded(t *testing.T) {
	c := newCell("pods|clusterA|all")

	genA := c.BeginFetch(false)
	genB := c.BeginFetch(false)

	// B completes first, then A's late result arrives.
	require.True(t, c.ApplySuccess(genB, items("from-b")))
	assert.False(t, c.ApplySuccess(genA, items("from-a")), "superseded result must not apply")
	assert.False(t, c.ApplyFailure(genA, "late failure", true), "superseded failure must not count")

	s := c.Snapshot()
	require.Len(t, s.Data, 1)
	assert.Equal(t, "from-b", s.Data[0].Name)
	assert.Equal(t, 0, s.ConsecutiveFailures)
}

func TestPartialClearsLoading(t *testing.T) {
	c := newCell("pods|all|all")

	gen := c.BeginFetch(false)
	assert.True(t, c.Snapshot().IsLoading)

	require.True(t, c.ApplyPartial(gen, items("web-1")))
	s := c.Snapshot()
	assert.False(t, s.IsLoading, "first batch renders before the stream finishes")
	assert.True(t, s.IsRefreshing, "stream is still running")
	assert.Len(t, s.Data, 1)
}

func TestFallbackOnlyFillsEmptyCell(t *testing.T) {
	c := newCell("pods|clusterA|all")

	gen := c.BeginFetch(false)
	c.ApplyFailure(gen, "boom", false)
	require.True(t, c.ApplyFallback(gen, items("demo-1")))
	assert.Equal(t, 1, c.Snapshot().ConsecutiveFailures, "fallback keeps failure accounting")

	// With real data present, fallback must refuse.
	c.ApplySuccess(c.BeginFetch(false), items("real-1"))
	gen = c.BeginFetch(true)
	c.ApplyFailure(gen, "boom", false)
	assert.False(t, c.ApplyFallback(gen, items("demo-1")))
	assert.Equal(t, "real-1", c.Snapshot().Data[0].Name)
}

func TestSeed(t *testing.T) {
	c := newCell("pods|clusterA|all")
	ts := time.Now().Add(-time.Hour)

	require.True(t, c.Seed(items("stale-1", "stale-2"), ts))
	s := c.Snapshot()
	assert.False(t, s.IsLoading, "seeded cells render immediately")
	assert.Len(t, s.Data, 2)
	assert.True(t, s.LastUpdated.Equal(ts))

	// A cell with data refuses a second seed.
	assert.False(t, c.Seed(items("other"), time.Now()))
}

func TestResetInvalidatesInFlightFetch(t *testing.T) {
	c := newCell("pods|clusterA|all")
	gen := c.BeginFetch(false)

	c.Reset()
	assert.False(t, c.ApplySuccess(gen, items("late")), "reset supersedes in-flight fetches")

	s := c.Snapshot()
	assert.Empty(t, s.Data)
	assert.True(t, s.IsLoading)
	assert.True(t, s.IsResetting)
}

func TestResetIsIdempotent(t *testing.T) {
	c := newCell("pods|clusterA|all")
	c.ApplySuccess(c.BeginFetch(false), items("web-1"))

	c.Reset()
	c.Reset()
	c.FinishReset()
	c.FinishReset()

	s := c.Snapshot()
	assert.False(t, s.IsResetting, "double reset must not stick")
	assert.True(t, s.IsLoading)

	// Normal refetch path also clears the flag.
	c.Reset()
	c.ApplySuccess(c.BeginFetch(false), items("fresh"))
	s = c.Snapshot()
	assert.False(t, s.IsResetting)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "fresh", s.Data[0].Name)
}

func TestSubscribe(t *testing.T) {
	c := newCell("pods|clusterA|all")

	var states []State
	unsub := c.Subscribe(func(s State) { states = append(states, s) })
	require.Len(t, states, 1, "observer fires immediately on subscribe")

	gen := c.BeginFetch(false)
	c.ApplySuccess(gen, items("web-1"))
	assert.GreaterOrEqual(t, len(states), 3)

	seen := len(states)
	unsub()
	c.BeginFetch(true)
	assert.Len(t, states, seen, "observer must not fire after unsubscribe")
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newCell("pods|clusterA|all")
	c.ApplySuccess(c.BeginFetch(false), items("web-1"))

	s := c.Snapshot()
	s.Data[0].Name = "mutated"
	assert.Equal(t, "web-1", c.Snapshot().Data[0].Name)
}
