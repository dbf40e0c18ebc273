// Package monitoring collects per-operation metrics for the batch executor.
package monitoring

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// OperationMetrics represents performance metrics for a single executor operation.
type OperationMetrics struct {
	Duration      time.Duration `json:"duration"`
	RowsProcessed int64         `json:"rows_processed"`
	MemoryUsed    int64         `json:"memory_used"`
	Operation     string        `json:"operation"`
	Parallel      bool          `json:"parallel"`
	Failed        bool          `json:"failed"`
}

// Sample is what a recorded operation reports about the work it did.
type Sample struct {
	Rows     int64
	Parallel bool
}

// MetricsCollector collects and stores performance metrics.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// RecordOperation executes fn and records its duration, the rows it
// reports and the heap bytes allocated meanwhile. Failed operations are
// recorded too. A nil or disabled collector just runs fn.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() (Sample, error)) error {
	if mc == nil || !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var memBefore, memAfter runtime.MemStats
	runtime.ReadMemStats(&memBefore)
	start := time.Now()

	sample, err := fn()

	duration := time.Since(start)
	runtime.ReadMemStats(&memAfter)

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, OperationMetrics{
		Duration:      duration,
		RowsProcessed: sample.Rows,
		MemoryUsed:    int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // TotalAlloc is monotonic
		Operation:     operation,
		Parallel:      sample.Parallel,
		Failed:        err != nil,
	})
	mc.mu.Unlock()

	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if len(mc.metrics) == 0 {
		return MetricsSummary{}
	}

	summary := MetricsSummary{
		TotalOperations: len(mc.metrics),
		OperationCounts: make(map[string]int),
	}
	for _, metric := range mc.metrics {
		summary.TotalDuration += metric.Duration
		summary.TotalMemory += metric.MemoryUsed
		summary.TotalRows += metric.RowsProcessed
		summary.OperationCounts[metric.Operation]++
		if metric.Failed {
			summary.Failures++
		}
	}
	summary.AverageDuration = summary.TotalDuration / time.Duration(len(mc.metrics))
	return summary
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	Failures        int            `json:"failures"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalMemory     int64          `json:"total_memory"`
	TotalRows       int64          `json:"total_rows"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}

// String renders the summary for humans, e.g.
// "3 operations (0 failed), 1,204,000 rows in 12ms, 9.4 MB allocated".
func (s MetricsSummary) String() string {
	return fmt.Sprintf("%d operations (%d failed), %s rows in %s, %s allocated",
		s.TotalOperations, s.Failures, humanize.Comma(s.TotalRows),
		s.TotalDuration.Round(time.Millisecond), humanize.Bytes(uint64(max(s.TotalMemory, 0))))
}
