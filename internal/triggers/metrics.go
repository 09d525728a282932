package triggers

import (
	"sync/atomic"
	"time"
)

type triggerCounters struct {
	invocations int64
	failures    int64
	skipped     int64
	latency     int64 // Total latency in nanoseconds
}

// Metrics tracks per-trigger invocation counts for this process.
type Metrics struct {
	counters map[Trigger]*triggerCounters
}

// TriggerStats is a point-in-time copy of one trigger's counters.
type TriggerStats struct {
	Invocations  int64   `json:"invocations"`
	Failures     int64   `json:"failures"`
	Skipped      int64   `json:"skipped"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

func NewMetrics() *Metrics {
	m := &Metrics{counters: make(map[Trigger]*triggerCounters, len(AllTriggers))}
	for _, t := range AllTriggers {
		m.counters[t] = &triggerCounters{}
	}
	return m
}

func (m *Metrics) record(t Trigger, duration time.Duration, skipped bool, err error) {
	c, ok := m.counters[t]
	if !ok {
		return
	}
	atomic.AddInt64(&c.invocations, 1)
	atomic.AddInt64(&c.latency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&c.failures, 1)
	}
	if skipped {
		atomic.AddInt64(&c.skipped, 1)
	}
}

// Snapshot returns the current counters keyed by trigger name.
func (m *Metrics) Snapshot() map[string]TriggerStats {
	out := make(map[string]TriggerStats, len(m.counters))
	for t, c := range m.counters {
		calls := atomic.LoadInt64(&c.invocations)
		stats := TriggerStats{
			Invocations: calls,
			Failures:    atomic.LoadInt64(&c.failures),
			Skipped:     atomic.LoadInt64(&c.skipped),
		}
		if calls > 0 {
			stats.AvgLatencyMs = float64(atomic.LoadInt64(&c.latency)) / float64(calls) / 1e6
		}
		out[string(t)] = stats
	}
	return out
}
