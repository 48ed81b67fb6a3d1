package studyset

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordLoad is called after each Load, LoadSnapshot or remote load.
	// studies is the number of studies loaded.
	RecordLoad(studies int, duration time.Duration, err error)

	// RecordSave is called after each snapshot save or publish.
	// bytes is the encoded size when known, 0 otherwise.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordSelect is called after each selection.
	RecordSelect(matched int, duration time.Duration, err error)

	// RecordMutation is called after each Add or Remove.
	RecordMutation(count int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSelect(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMutation(int, error)              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadStudies      atomic.Int64
	LoadTotalNanos   atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	SaveBytes        atomic.Int64
	SaveTotalNanos   atomic.Int64
	SelectCount      atomic.Int64
	SelectErrors     atomic.Int64
	SelectMatched    atomic.Int64
	SelectTotalNanos atomic.Int64
	MutationCount    atomic.Int64
	MutationErrors   atomic.Int64
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(studies int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadStudies.Add(int64(studies))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(bytes)
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(matched int, duration time.Duration, err error) {
	b.SelectCount.Add(1)
	b.SelectTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SelectErrors.Add(1)
		return
	}
	b.SelectMatched.Add(int64(matched))
}

// RecordMutation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMutation(count int, err error) {
	if err != nil {
		b.MutationErrors.Add(1)
		return
	}
	b.MutationCount.Add(int64(count))
}

// MetricsStats is a point-in-time copy of BasicMetricsCollector counters.
type MetricsStats struct {
	LoadCount      int64
	LoadErrors     int64
	LoadStudies    int64
	LoadAvgNanos   int64
	SaveCount      int64
	SaveErrors     int64
	SaveBytes      int64
	SelectCount    int64
	SelectErrors   int64
	SelectMatched  int64
	SelectAvgNanos int64
	MutationCount  int64
	MutationErrors int64
}

// GetStats returns a snapshot of the current metrics.
func (b *BasicMetricsCollector) GetStats() MetricsStats {
	stats := MetricsStats{
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadStudies:    b.LoadStudies.Load(),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		SaveBytes:      b.SaveBytes.Load(),
		SelectCount:    b.SelectCount.Load(),
		SelectErrors:   b.SelectErrors.Load(),
		SelectMatched:  b.SelectMatched.Load(),
		MutationCount:  b.MutationCount.Load(),
		MutationErrors: b.MutationErrors.Load(),
	}
	if stats.LoadCount > 0 {
		stats.LoadAvgNanos = b.LoadTotalNanos.Load() / stats.LoadCount
	}
	if stats.SelectCount > 0 {
		stats.SelectAvgNanos = b.SelectTotalNanos.Load() / stats.SelectCount
	}
	return stats
}
