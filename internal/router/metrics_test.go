package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/loomworks/loom/internal/constants"
	"github.com/loomworks/loom/internal/domain"
)

func TestMetricsCollectorRecord(t *testing.T) {
	t.Run("ring never exceeds the capacity", func(t *testing.T) {
		m := NewMetricsCollector()

		for i := 0; i < constants.MetricsRingCapacity+50; i++ {
			m.Record(domain.OperationText, time.Millisecond, true)
		}

		assert.Equal(t, constants.MetricsRingCapacity, m.Stats(domain.OperationText).Count)
	})

	t.Run("oldest entries are evicted first", func(t *testing.T) {
		m := NewMetricsCollector(WithMetricsCapacity(3))

		m.Record(domain.OperationText, 1*time.Second, false) // evicted
		m.Record(domain.OperationText, 2*time.Second, true)
		m.Record(domain.OperationText, 3*time.Second, true)
		m.Record(domain.OperationText, 4*time.Second, true)

		stats := m.Stats(domain.OperationText)
		assert.Equal(t, 3, stats.Count)
		assert.Equal(t, 3, stats.SuccessCount)
		assert.InDelta(t, 1.0, stats.SuccessRate, 0.0001)
		assert.Equal(t, 2*time.Second, stats.MinDuration)
		assert.Equal(t, 4*time.Second, stats.MaxDuration)
		assert.Equal(t, 3*time.Second, stats.AvgDuration)
	})

	t.Run("categories are independent", func(t *testing.T) {
		m := NewMetricsCollector()
		m.Record(domain.OperationText, time.Second, true)
		m.Record(domain.OperationComponent, time.Second, false)

		assert.Equal(t, 1, m.Stats(domain.OperationText).Count)
		assert.Equal(t, 1, m.Stats(domain.OperationComponent).Count)
		assert.Equal(t, 0, m.Stats(domain.OperationWorkflow).Count)
	})
}

func TestMetricsCollectorStats(t *testing.T) {
	t.Run("empty category yields zero stats", func(t *testing.T) {
		m := NewMetricsCollector()

		stats := m.Stats(domain.OperationRefine)
		assert.Equal(t, 0, stats.Count)
		assert.Zero(t, stats.SuccessRate)
		assert.Zero(t, stats.AvgDuration)
	})

	t.Run("success rate counts failures", func(t *testing.T) {
		m := NewMetricsCollector()
		m.Record(domain.OperationText, time.Second, true)
		m.Record(domain.OperationText, time.Second, false)
		m.Record(domain.OperationText, time.Second, false)
		m.Record(domain.OperationText, time.Second, true)

		stats := m.Stats(domain.OperationText)
		assert.Equal(t, 4, stats.Count)
		assert.Equal(t, 2, stats.SuccessCount)
		assert.InDelta(t, 0.5, stats.SuccessRate, 0.0001)
	})
}

func TestMetricsCollectorGlobalStats(t *testing.T) {
	m := NewMetricsCollector()
	m.Record(domain.OperationText, 1*time.Second, true)
	m.Record(domain.OperationComponent, 3*time.Second, false)

	global := m.GlobalStats()
	assert.Equal(t, 2, global.Count)
	assert.Equal(t, 1, global.SuccessCount)
	assert.Equal(t, 1*time.Second, global.MinDuration)
	assert.Equal(t, 3*time.Second, global.MaxDuration)
	assert.Equal(t, 2*time.Second, global.AvgDuration)
}

func TestMetricsCollectorCategories(t *testing.T) {
	m := NewMetricsCollector()
	assert.Empty(t, m.Categories())

	m.Record(domain.OperationText, time.Second, true)
	m.Record(domain.OperationWorkflow, time.Second, true)

	kinds := m.Categories()
	assert.Len(t, kinds, 2)
	assert.Contains(t, kinds, domain.OperationText)
	assert.Contains(t, kinds, domain.OperationWorkflow)
}
