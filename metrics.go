package segmend

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting reconciliation metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the metrics/prometheus package).
type MetricsCollector interface {
	// RecordAction is called after each started column action.
	// duration is the time the column took, err is nil if successful.
	RecordAction(action Action, duration time.Duration, err error)

	// RecordPass is called after each pass. columns is the number of
	// classified columns, failed the number that failed.
	RecordPass(columns, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAction(Action, time.Duration, error) {}
func (NoopMetricsCollector) RecordPass(int, int, time.Duration)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount       atomic.Int64
	AddErrors      atomic.Int64
	UpdateCount    atomic.Int64
	UpdateErrors   atomic.Int64
	RemoveCount    atomic.Int64
	RemoveErrors   atomic.Int64
	ActionNanos    atomic.Int64
	PassCount      atomic.Int64
	PassColumns    atomic.Int64
	PassFailed     atomic.Int64
	PassTotalNanos atomic.Int64
}

// RecordAction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAction(action Action, duration time.Duration, err error) {
	b.ActionNanos.Add(duration.Nanoseconds())
	switch action {
	case ActionAdd:
		b.AddCount.Add(1)
		if err != nil {
			b.AddErrors.Add(1)
		}
	case ActionUpdate:
		b.UpdateCount.Add(1)
		if err != nil {
			b.UpdateErrors.Add(1)
		}
	case ActionRemove:
		b.RemoveCount.Add(1)
		if err != nil {
			b.RemoveErrors.Add(1)
		}
	}
}

// RecordPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPass(columns, failed int, duration time.Duration) {
	b.PassCount.Add(1)
	b.PassColumns.Add(int64(columns))
	b.PassFailed.Add(int64(failed))
	b.PassTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		RemoveCount:    b.RemoveCount.Load(),
		RemoveErrors:   b.RemoveErrors.Load(),
		ActionAvgNanos: b.getAvgActionNanos(),
		PassCount:      b.PassCount.Load(),
		PassColumns:    b.PassColumns.Load(),
		PassFailed:     b.PassFailed.Load(),
		PassAvgNanos:   b.getAvgPassNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgActionNanos() int64 {
	count := b.AddCount.Load() + b.UpdateCount.Load() + b.RemoveCount.Load()
	if count == 0 {
		return 0
	}
	return b.ActionNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgPassNanos() int64 {
	count := b.PassCount.Load()
	if count == 0 {
		return 0
	}
	return b.PassTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	UpdateCount    int64
	UpdateErrors   int64
	RemoveCount    int64
	RemoveErrors   int64
	ActionAvgNanos int64
	PassCount      int64
	PassColumns    int64
	PassFailed     int64
	PassAvgNanos   int64
}
