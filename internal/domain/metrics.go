// Package domain provides shared domain types for the loom pipeline core.
package domain

import "time"

// PerformanceMetric records the outcome of one routed backend call.
// Metrics live in per-category ring buffers and are never persisted.
type PerformanceMetric struct {
	// Duration is how long the call took.
	Duration time.Duration `json:"duration"`

	// Success indicates whether the call completed without error.
	Success bool `json:"success"`

	// Timestamp is when the metric was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// CategoryStats aggregates the metrics recorded for one operation category
// (or all categories combined).
type CategoryStats struct {
	// Count is the number of recorded calls.
	Count int `json:"count"`

	// SuccessCount is the number of successful calls.
	SuccessCount int `json:"successCount"`

	// SuccessRate is SuccessCount divided by Count (0 when Count is 0).
	SuccessRate float64 `json:"successRate"`

	// AvgDuration is the mean call duration.
	AvgDuration time.Duration `json:"avgDuration"`

	// MinDuration is the shortest recorded call.
	MinDuration time.Duration `json:"minDuration"`

	// MaxDuration is the longest recorded call.
	MaxDuration time.Duration `json:"maxDuration"`
}
