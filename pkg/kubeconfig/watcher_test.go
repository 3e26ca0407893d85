package kubeconfig

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte("clusters: []\n"), 0600))

	var fired atomic.Int32
	w, err := NewWatcher(path, func() { fired.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	w.Start()
	defer w.Stop()

	// Temp-file rename, the way kubectl and most tools rewrite config.
	tmp := filepath.Join(dir, "config.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("clusters: [prod]\n"), 0600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0600))

	var fired atomic.Int32
	w, err := NewWatcher(path, func() { fired.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(100 * time.Millisecond)
	w.Start()
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("b\n"), 0600))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0600))

	var fired atomic.Int32
	w, err := NewWatcher(path, func() { fired.Add(1) })
	require.NoError(t, err)
	w.SetDebounce(30 * time.Millisecond)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("x\n"), 0600))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestNewWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "config"), func() {})
	assert.Error(t, err)
}
