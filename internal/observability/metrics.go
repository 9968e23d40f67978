package observability

import (
	"sync"
	"time"
)

// Metrics collects dispatch metrics.
type Metrics interface {
	RecordDispatch(labels DispatchLabels, latency time.Duration)
}

// DispatchLabels contains metric dimensions.
type DispatchLabels struct {
	Operation string
	Path      string
	Status    int
}

// PathStats aggregates dispatches that took the same path.
type PathStats struct {
	Count        int64 `json:"count"`
	Errors       int64 `json:"errors"`
	TotalLatency int64 `json:"totalLatencyMs"`
	MaxLatency   int64 `json:"maxLatencyMs"`
}

// DispatchMetrics is an in-process Metrics implementation keyed by operation and path.
// It holds counters only; nothing here feeds back into dispatch decisions.
type DispatchMetrics struct {
	mu        sync.Mutex
	startedAt time.Time
	stats     map[string]map[string]*PathStats
}

// NewDispatchMetrics creates an empty collector
func NewDispatchMetrics() *DispatchMetrics {
	return &DispatchMetrics{
		startedAt: time.Now().UTC(),
		stats:     make(map[string]map[string]*PathStats),
	}
}

// RecordDispatch counts one dispatch
func (m *DispatchMetrics) RecordDispatch(labels DispatchLabels, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byPath, ok := m.stats[labels.Operation]
	if !ok {
		byPath = make(map[string]*PathStats)
		m.stats[labels.Operation] = byPath
	}
	s, ok := byPath[labels.Path]
	if !ok {
		s = &PathStats{}
		byPath[labels.Path] = s
	}

	ms := latency.Milliseconds()
	s.Count++
	s.TotalLatency += ms
	if ms > s.MaxLatency {
		s.MaxLatency = ms
	}
	if labels.Status >= 400 {
		s.Errors++
	}
}

// Snapshot returns a copy of the counters
func (m *DispatchMetrics) Snapshot() map[string]map[string]PathStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]map[string]PathStats, len(m.stats))
	for op, byPath := range m.stats {
		paths := make(map[string]PathStats, len(byPath))
		for path, s := range byPath {
			paths[path] = *s
		}
		out[op] = paths
	}
	return out
}

// StartedAt returns when the collector was created
func (m *DispatchMetrics) StartedAt() time.Time {
	return m.startedAt
}

// NopMetrics discards everything
type NopMetrics struct{}

// RecordDispatch implements Metrics
func (NopMetrics) RecordDispatch(DispatchLabels, time.Duration) {}
