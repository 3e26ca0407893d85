package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetglass/fleetglass/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	entry := Entry{
		Key:       "pods|clusterA|all",
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Data: []types.Resource{
			{Name: "web-1", Cluster: "clusterA"},
			{Name: "web-2", Cluster: "clusterA"},
		},
	}
	require.NoError(t, s.Save("pods", entry))

	got, err := s.Load("pods", "pods|clusterA|all")
	require.NoError(t, err)
	assert.Equal(t, entry.Key, got.Key)
	assert.Len(t, got.Data, 2)
	assert.Equal(t, "web-1", got.Data[0].Name)
	assert.True(t, entry.Timestamp.Equal(got.Timestamp))
}

func TestLoadScopeKeyMismatch(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("pods", Entry{
		Key:  "pods|clusterA|all",
		Data: []types.Resource{{Name: "web-1"}},
	}))

	// Entry stored under clusterA must not satisfy a clusterB request.
	_, err := s.Load("pods", "pods|clusterB|all")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMissingFamily(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load("operators", "operators|all|all")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplacesPriorEntry(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("pods", Entry{
		Key:  "pods|clusterA|all",
		Data: []types.Resource{{Name: "old"}},
	}))
	require.NoError(t, s.Save("pods", Entry{
		Key:  "pods|clusterB|all",
		Data: []types.Resource{{Name: "new"}},
	}))

	// Only the most recent scope occupies the family slot.
	_, err := s.Load("pods", "pods|clusterA|all")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Load("pods", "pods|clusterB|all")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Data[0].Name)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("pods", Entry{Key: "pods|all|all"}))
	require.NoError(t, s.Delete("pods"))

	_, err := s.Load("pods", "pods|all|all")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing entry is not an error.
	assert.NoError(t, s.Delete("pods"))
}

func TestSizeBoundSkipsOversizedEntry(t *testing.T) {
	s := newTestStore(t)
	s.SetMaxEntryBytes(256)

	big := make(json.RawMessage, 1024)
	for i := range big {
		big[i] = 'x'
	}
	big[0], big[len(big)-1] = '"', '"'

	err := s.Save("pods", Entry{
		Key:  "pods|all|all",
		Data: []types.Resource{{Name: "huge", Raw: big}},
	})
	require.NoError(t, err)

	// The oversized entry was skipped, not written.
	_, err = s.Load("pods", "pods|all|all")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save("clusters", Entry{
		Key:  "clusters|all|all",
		Data: []types.Resource{{Name: "prod-east"}},
	}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load("clusters", "clusters|all|all")
	require.NoError(t, err)
	assert.Equal(t, "prod-east", got.Data[0].Name)
}
