// Package app drives a native event loop on behalf of the reactor and gives
// goroutines window handles whose methods run on the loop thread.
package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks event loop performance.
type Metrics struct {
	// Iteration timing, measured around the about-to-wait work.
	iterCount   atomic.Uint64
	iterTotalNs atomic.Int64
	iterMinNs   atomic.Int64
	iterMaxNs   atomic.Int64
	lastIterNs  atomic.Int64

	// Work done per iteration
	opsRun      atomic.Uint64
	timersFired atomic.Uint64
	wakerPanics atomic.Uint64

	// Event processing
	eventCount   atomic.Uint64
	eventTotalNs atomic.Int64
	eventErrors  atomic.Uint64

	startTime atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.startTime.Store(time.Now().UnixNano())
	// Initialize min to max int64 so first iteration will be smaller
	m.iterMinNs.Store(1<<63 - 1)
	return m
}

// RecordIteration records the cost of one about-to-wait pass.
func (m *Metrics) RecordIteration(duration time.Duration, opsRun, timersFired int) {
	ns := duration.Nanoseconds()

	m.iterCount.Add(1)
	m.iterTotalNs.Add(ns)
	m.lastIterNs.Store(ns)
	m.opsRun.Add(uint64(opsRun))
	m.timersFired.Add(uint64(timersFired))

	for {
		old := m.iterMinNs.Load()
		if ns >= old || m.iterMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.iterMaxNs.Load()
		if ns <= old || m.iterMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordWakerPanics records wakers that panicked while being woken.
func (m *Metrics) RecordWakerPanics(n int) {
	m.wakerPanics.Add(uint64(n))
}

// RecordEvent records the time spent posting one native event.
func (m *Metrics) RecordEvent(duration time.Duration, err error) {
	m.eventCount.Add(1)
	m.eventTotalNs.Add(duration.Nanoseconds())
	if err != nil {
		m.eventErrors.Add(1)
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	iterCount := m.iterCount.Load()
	eventCount := m.eventCount.Load()

	var avgIterNs int64
	if iterCount > 0 {
		avgIterNs = m.iterTotalNs.Load() / int64(iterCount)
	}

	var avgEventNs int64
	if eventCount > 0 {
		avgEventNs = m.eventTotalNs.Load() / int64(eventCount)
	}

	minIterNs := m.iterMinNs.Load()
	if minIterNs == 1<<63-1 {
		minIterNs = 0
	}

	return MetricsSnapshot{
		Uptime:      time.Since(time.Unix(0, m.startTime.Load())),
		Iterations:  iterCount,
		AvgIterNs:   avgIterNs,
		MinIterNs:   minIterNs,
		MaxIterNs:   m.iterMaxNs.Load(),
		LastIterNs:  m.lastIterNs.Load(),
		OpsRun:      m.opsRun.Load(),
		TimersFired: m.timersFired.Load(),
		WakerPanics: m.wakerPanics.Load(),
		EventCount:  eventCount,
		AvgEventNs:  avgEventNs,
		EventErrors: m.eventErrors.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.iterCount.Store(0)
	m.iterTotalNs.Store(0)
	m.iterMinNs.Store(1<<63 - 1)
	m.iterMaxNs.Store(0)
	m.lastIterNs.Store(0)
	m.opsRun.Store(0)
	m.timersFired.Store(0)
	m.wakerPanics.Store(0)
	m.eventCount.Store(0)
	m.eventTotalNs.Store(0)
	m.eventErrors.Store(0)
	m.startTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime      time.Duration
	Iterations  uint64
	AvgIterNs   int64
	MinIterNs   int64
	MaxIterNs   int64
	LastIterNs  int64
	OpsRun      uint64
	TimersFired uint64
	WakerPanics uint64
	EventCount  uint64
	AvgEventNs  int64
	EventErrors uint64
}
