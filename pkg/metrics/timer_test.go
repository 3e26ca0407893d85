package metrics

import (
	"testing"
	"time"
)

// TestNewTimer tests timer creation
func TestNewTimer(t *testing.T) {
	timer := NewTimer()

	if timer == nil {
		t.Fatal("NewTimer() returned nil")
	}

	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}

	if time.Since(timer.start) > time.Second {
		t.Error("NewTimer() start time is not recent")
	}
}

// TestTimerDuration tests duration measurement
func TestTimerDuration(t *testing.T) {
	timer := NewTimer()

	sleepDuration := 50 * time.Millisecond
	time.Sleep(sleepDuration)

	duration := timer.Duration()
	if duration < sleepDuration {
		t.Errorf("Timer.Duration() = %v, want >= %v", duration, sleepDuration)
	}
	if duration > sleepDuration+time.Second {
		t.Errorf("Timer.Duration() = %v, unexpectedly large", duration)
	}
}

// TestObserveDuration tests histogram observation
func TestObserveDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	// Must not panic on a registered histogram child.
	timer.ObserveDuration(FetchDuration.WithLabelValues("test-family"))
}
