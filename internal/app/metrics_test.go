package app

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}

	snapshot := m.Snapshot()
	if snapshot.Iterations != 0 {
		t.Errorf("expected 0 iterations, got %d", snapshot.Iterations)
	}
	if snapshot.MinIterNs != 0 {
		t.Errorf("expected 0 min iteration time (sentinel handled), got %d", snapshot.MinIterNs)
	}
}

func TestMetrics_RecordIteration(t *testing.T) {
	m := NewMetrics()

	m.RecordIteration(10*time.Millisecond, 2, 1)
	m.RecordIteration(20*time.Millisecond, 0, 3)
	m.RecordIteration(5*time.Millisecond, 1, 0)

	snapshot := m.Snapshot()
	if snapshot.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", snapshot.Iterations)
	}
	if snapshot.MinIterNs != int64(5*time.Millisecond) {
		t.Errorf("expected min 5ms, got %d ns", snapshot.MinIterNs)
	}
	if snapshot.MaxIterNs != int64(20*time.Millisecond) {
		t.Errorf("expected max 20ms, got %d ns", snapshot.MaxIterNs)
	}
	if snapshot.LastIterNs != int64(5*time.Millisecond) {
		t.Errorf("expected last 5ms, got %d ns", snapshot.LastIterNs)
	}
	if snapshot.AvgIterNs != int64(35*time.Millisecond)/3 {
		t.Errorf("expected avg %d ns, got %d ns", int64(35*time.Millisecond)/3, snapshot.AvgIterNs)
	}
	if snapshot.OpsRun != 3 {
		t.Errorf("expected 3 ops run, got %d", snapshot.OpsRun)
	}
	if snapshot.TimersFired != 4 {
		t.Errorf("expected 4 timers fired, got %d", snapshot.TimersFired)
	}
}

func TestMetrics_RecordWakerPanics(t *testing.T) {
	m := NewMetrics()

	m.RecordWakerPanics(2)
	m.RecordWakerPanics(1)

	if got := m.Snapshot().WakerPanics; got != 3 {
		t.Errorf("expected 3 waker panics, got %d", got)
	}
}

func TestMetrics_RecordEvent(t *testing.T) {
	m := NewMetrics()

	m.RecordEvent(1*time.Millisecond, nil)
	m.RecordEvent(3*time.Millisecond, errors.New("listener failed"))

	snapshot := m.Snapshot()
	if snapshot.EventCount != 2 {
		t.Errorf("expected 2 events, got %d", snapshot.EventCount)
	}
	if snapshot.AvgEventNs != int64(2*time.Millisecond) {
		t.Errorf("expected avg 2ms, got %d ns", snapshot.AvgEventNs)
	}
	if snapshot.EventErrors != 1 {
		t.Errorf("expected 1 event error, got %d", snapshot.EventErrors)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()

	m.RecordIteration(10*time.Millisecond, 1, 1)
	m.RecordEvent(time.Millisecond, nil)
	m.RecordWakerPanics(1)
	m.Reset()

	snapshot := m.Snapshot()
	if snapshot.Iterations != 0 || snapshot.EventCount != 0 || snapshot.WakerPanics != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", snapshot)
	}
	if snapshot.MinIterNs != 0 || snapshot.MaxIterNs != 0 {
		t.Errorf("expected zeroed timings after reset, got min=%d max=%d", snapshot.MinIterNs, snapshot.MaxIterNs)
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordIteration(time.Microsecond, 1, 0)
				m.RecordEvent(time.Microsecond, nil)
			}
		}()
	}
	wg.Wait()

	snapshot := m.Snapshot()
	if snapshot.Iterations != 1000 {
		t.Errorf("expected 1000 iterations, got %d", snapshot.Iterations)
	}
	if snapshot.OpsRun != 1000 {
		t.Errorf("expected 1000 ops, got %d", snapshot.OpsRun)
	}
	if snapshot.EventCount != 1000 {
		t.Errorf("expected 1000 events, got %d", snapshot.EventCount)
	}
}
