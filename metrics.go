package cepgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordDelete is called after each delete operation. removed is false
	// when the row was not in the table.
	RecordDelete(duration time.Duration, removed bool)

	// RecordReject is called when a unique index refuses a row.
	RecordReject(index string)

	// RecordTray is called with the size of every tray an operation returns.
	RecordTray(size int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(time.Duration, bool)  {}
func (NoopMetricsCollector) RecordReject(string)               {}
func (NoopMetricsCollector) RecordTray(int)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteMisses     atomic.Int64
	DeleteTotalNanos atomic.Int64
	RejectCount      atomic.Int64
	TrayCount        atomic.Int64
	TrayRowops       atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, removed bool) {
	b.DeleteCount.Add(1)
	b.DeleteTotalNanos.Add(duration.Nanoseconds())
	if !removed {
		b.DeleteMisses.Add(1)
	}
}

// RecordReject implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReject(string) {
	b.RejectCount.Add(1)
}

// RecordTray implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTray(size int) {
	b.TrayCount.Add(1)
	b.TrayRowops.Add(int64(size))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteMisses:   b.DeleteMisses.Load(),
		DeleteAvgNanos: avg(b.DeleteTotalNanos.Load(), b.DeleteCount.Load()),
		RejectCount:    b.RejectCount.Load(),
		TrayCount:      b.TrayCount.Load(),
		TrayRowops:     b.TrayRowops.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	DeleteCount    int64
	DeleteMisses   int64
	DeleteAvgNanos int64
	RejectCount    int64
	TrayCount      int64
	TrayRowops     int64
}
