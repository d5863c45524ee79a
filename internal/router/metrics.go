package router

import (
	"sync"
	"time"

	"github.com/loomworks/loom/internal/clock"
	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
)

// MetricsCollector keeps a bounded ring of performance metrics per
// operation category. When a ring is full the oldest entry is evicted,
// so memory stays flat no matter how long the process runs.
type MetricsCollector struct {
	mu       sync.RWMutex
	rings    map[domain.OperationKind][]domain.PerformanceMetric
	capacity int
	clk      clock.Clock
}

// MetricsOption is a functional option for configuring MetricsCollector.
type MetricsOption func(*MetricsCollector)

// WithMetricsClock sets the clock used for metric timestamps.
func WithMetricsClock(clk clock.Clock) MetricsOption {
	return func(m *MetricsCollector) {
		m.clk = clk
	}
}

// WithMetricsCapacity overrides the per-category ring capacity.
func WithMetricsCapacity(n int) MetricsOption {
	return func(m *MetricsCollector) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// NewMetricsCollector creates a collector with the default ring capacity.
func NewMetricsCollector(opts ...MetricsOption) *MetricsCollector {
	m := &MetricsCollector{
		rings:    make(map[domain.OperationKind][]domain.PerformanceMetric),
		capacity: constants.MetricsRingCapacity,
		clk:      clock.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends a metric to the category's ring, evicting the oldest
// entry when the ring is at capacity.
func (m *MetricsCollector) Record(kind domain.OperationKind, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ring := m.rings[kind]
	if len(ring) >= m.capacity {
		ring = ring[1:]
	}
	ring = append(ring, domain.PerformanceMetric{
		Duration:  duration,
		Success:   success,
		Timestamp: m.clk.Now(),
	})
	m.rings[kind] = ring
}

// Stats aggregates the metrics recorded for one category.
func (m *MetricsCollector) Stats(kind domain.OperationKind) domain.CategoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return aggregate(m.rings[kind])
}

// GlobalStats aggregates across every category.
func (m *MetricsCollector) GlobalStats() domain.CategoryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []domain.PerformanceMetric
	for _, ring := range m.rings {
		all = append(all, ring...)
	}
	return aggregate(all)
}

// Categories returns the operation kinds with at least one recorded metric.
func (m *MetricsCollector) Categories() []domain.OperationKind {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kinds := make([]domain.OperationKind, 0, len(m.rings))
	for kind, ring := range m.rings {
		if len(ring) > 0 {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func aggregate(metrics []domain.PerformanceMetric) domain.CategoryStats {
	stats := domain.CategoryStats{Count: len(metrics)}
	if stats.Count == 0 {
		return stats
	}

	var total time.Duration
	stats.MinDuration = metrics[0].Duration
	for _, metric := range metrics {
		total += metric.Duration
		if metric.Success {
			stats.SuccessCount++
		}
		if metric.Duration < stats.MinDuration {
			stats.MinDuration = metric.Duration
		}
		if metric.Duration > stats.MaxDuration {
			stats.MaxDuration = metric.Duration
		}
	}
	stats.AvgDuration = total / time.Duration(stats.Count)
	stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.Count)
	return stats
}
