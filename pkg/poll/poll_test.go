package poll

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickRecorder struct {
	mu    sync.Mutex
	ticks map[string]int
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{ticks: make(map[string]int)}
}

func (r *tickRecorder) fire(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks[key]++
}

func (r *tickRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks[key]
}

func TestSchedulerFiresOnInterval(t *testing.T) {
	rec := newTickRecorder()
	s := NewScheduler(rec.fire)
	defer s.StopAll()

	s.Start("pods|all|all", 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return rec.count("pods|all|all") >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDuplicateStartIsNoOp(t *testing.T) {
	rec := newTickRecorder()
	s := NewScheduler(rec.fire)
	defer s.StopAll()

	s.Start("pods|all|all", 50*time.Millisecond)
	s.Start("pods|all|all", 5*time.Millisecond)

	require.Equal(t, 1, s.ActiveCount())

	// If the second Start had stacked a 5ms timer we would see far
	// more than 2-3 ticks in this window.
	time.Sleep(120 * time.Millisecond)
	assert.LessOrEqual(t, rec.count("pods|all|all"), 3)
}

func TestStopHaltsTicks(t *testing.T) {
	rec := newTickRecorder()
	s := NewScheduler(rec.fire)

	s.Start("pods|all|all", 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return rec.count("pods|all|all") >= 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop("pods|all|all")
	assert.Equal(t, 0, s.ActiveCount())

	after := rec.count("pods|all|all")
	time.Sleep(80 * time.Millisecond)
	assert.LessOrEqual(t, rec.count("pods|all|all"), after+1)

	// Stopping again is safe.
	s.Stop("pods|all|all")
}

func TestStopAll(t *testing.T) {
	rec := newTickRecorder()
	s := NewScheduler(rec.fire)

	s.Start("pods|all|all", time.Hour)
	s.Start("clusters|all|all", time.Hour)
	require.Equal(t, 2, s.ActiveCount())

	s.StopAll()
	assert.Equal(t, 0, s.ActiveCount())
}

func TestNonPositiveIntervalDisablesPolling(t *testing.T) {
	rec := newTickRecorder()
	s := NewScheduler(rec.fire)
	defer s.StopAll()

	s.Start("pods|all|all", 0)
	assert.Equal(t, 0, s.ActiveCount())
}

func TestBackgroundedStretchesInterval(t *testing.T) {
	s := NewScheduler(func(string) {})
	defer s.StopAll()

	assert.Equal(t, 30*time.Second, s.effectiveInterval(30*time.Second))

	s.SetBackgrounded(true)
	assert.Equal(t, 120*time.Second, s.effectiveInterval(30*time.Second))

	s.SetBackgrounded(false)
	assert.Equal(t, 30*time.Second, s.effectiveInterval(30*time.Second))
}
