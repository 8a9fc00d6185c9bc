// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is the fixed set of atomic counters the event loop and channel
// packages update directly on their hot paths (cheaper than a map lookup
// per increment). PublishTo copies them into a MetricsRegistry, when the
// caller invokes it, for introspection alongside dynamically-named metrics.
type Stats struct {
	TasksExecuted   atomic.Int64
	TasksRejected   atomic.Int64
	TimersScheduled atomic.Int64
	TimersFired     atomic.Int64
	TimersCancelled atomic.Int64
	PanicsRecovered atomic.Int64
}

// Snapshot is a point-in-time, non-transactional copy of Stats.
type Snapshot struct {
	TasksExecuted   int64
	TasksRejected   int64
	TimersScheduled int64
	TimersFired     int64
	TimersCancelled int64
	PanicsRecovered int64
}

// Snapshot reads all counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TasksExecuted:   s.TasksExecuted.Load(),
		TasksRejected:   s.TasksRejected.Load(),
		TimersScheduled: s.TimersScheduled.Load(),
		TimersFired:     s.TimersFired.Load(),
		TimersCancelled: s.TimersCancelled.Load(),
		PanicsRecovered: s.PanicsRecovered.Load(),
	}
}

// PublishTo writes the current snapshot into a MetricsRegistry under keys
// prefixed by name, bridging the typed hot-path counters with the dynamic
// registry used for ad-hoc debug probes.
func (s *Stats) PublishTo(reg *MetricsRegistry, name string) {
	snap := s.Snapshot()
	reg.Set(name+".tasks_executed", snap.TasksExecuted)
	reg.Set(name+".tasks_rejected", snap.TasksRejected)
	reg.Set(name+".timers_scheduled", snap.TimersScheduled)
	reg.Set(name+".timers_fired", snap.TimersFired)
	reg.Set(name+".timers_cancelled", snap.TimersCancelled)
	reg.Set(name+".panics_recovered", snap.PanicsRecovered)
}

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}
