package poll

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fleetglass/fleetglass/pkg/log"
	"github.com/fleetglass/fleetglass/pkg/metrics"
)

// BackgroundMultiplier stretches every poll interval while the
// dashboard is backgrounded. Data goes stale slower than it burns
// API quota.
const BackgroundMultiplier = 4

// FireFunc runs one poll cycle for a cache key. It is invoked from the
// key's timer goroutine and should not block longer than the interval.
type FireFunc func(key string)

// Scheduler owns one timer loop per active cache key. Starting a key
// that already has a loop is a no-op, so remounting a view never
// stacks timers.
type Scheduler struct {
	fire         FireFunc
	mu           sync.Mutex
	entries      map[string]chan struct{}
	backgrounded bool
	logger       zerolog.Logger
}

// NewScheduler creates a scheduler that calls fire on every tick.
func NewScheduler(fire FireFunc) *Scheduler {
	return &Scheduler{
		fire:    fire,
		entries: make(map[string]chan struct{}),
		logger:  log.WithComponent("poll"),
	}
}

// Start begins polling key every interval. Duplicate starts for a live
// key are ignored; intervals <= 0 disable polling for the key.
func (s *Scheduler) Start(key string, interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		return
	}

	stopCh := make(chan struct{})
	s.entries[key] = stopCh
	s.logger.Debug().Str("key", key).Dur("interval", interval).Msg("Poll loop started")

	go s.run(key, interval, stopCh)
}

// Stop halts the poll loop for key. Stopping an unknown key is safe.
func (s *Scheduler) Stop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stopCh, ok := s.entries[key]; ok {
		close(stopCh)
		delete(s.entries, key)
	}
}

// StopAll halts every poll loop. Used during shutdown.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, stopCh := range s.entries {
		close(stopCh)
		delete(s.entries, key)
	}
}

// SetBackgrounded toggles the stretched interval. Running loops pick
// up the change on their next timer arm, without restarting.
func (s *Scheduler) SetBackgrounded(backgrounded bool) {
	s.mu.Lock()
	changed := s.backgrounded != backgrounded
	s.backgrounded = backgrounded
	s.mu.Unlock()

	if changed {
		s.logger.Info().Bool("backgrounded", backgrounded).Msg("Poll cadence changed")
	}
}

// ActiveCount returns the number of running poll loops.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) effectiveInterval(base time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backgrounded {
		return base * BackgroundMultiplier
	}
	return base
}

// run is the per-key timer loop. The timer re-arms with the effective
// interval on every cycle so a background/foreground flip applies at
// the next tick boundary.
func (s *Scheduler) run(key string, base time.Duration, stopCh chan struct{}) {
	family, _, _ := strings.Cut(key, "|")

	timer := time.NewTimer(s.effectiveInterval(base))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			metrics.PollTicksTotal.WithLabelValues(family).Inc()
			s.fire(key)
			timer.Reset(s.effectiveInterval(base))
		case <-stopCh:
			return
		}
	}
}
