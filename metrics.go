package dynvec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting storage metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAllocation is called for every block allocation attempt.
	// err is nil if the block was allocated.
	RecordAllocation(slots int, bytes int64, err error)

	// RecordRelease is called when a block is released.
	RecordRelease(bytes int64)

	// RecordReallocation is called after elements were transferred into a
	// new block and the old block was retired.
	RecordReallocation(oldCap, newCap int, strategy Strategy, duration time.Duration)

	// RecordRollback is called when a mutator failed and restored the
	// previous state.
	RecordRollback(op string, err error)

	// RecordFailure is called when a mutator with the basic guarantee
	// failed. The array is valid but may have been modified.
	RecordFailure(op string, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocation(int, int64, error)                   {}
func (NoopMetricsCollector) RecordRelease(int64)                                  {}
func (NoopMetricsCollector) RecordReallocation(int, int, Strategy, time.Duration) {}
func (NoopMetricsCollector) RecordRollback(string, error)                         {}
func (NoopMetricsCollector) RecordFailure(string, error)                          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for tests and debugging without external dependencies.
type BasicMetricsCollector struct {
	Allocations       atomic.Int64
	AllocationErrors  atomic.Int64
	BytesAllocated    atomic.Int64
	BytesReleased     atomic.Int64
	Reallocations     atomic.Int64
	MoveTransfers     atomic.Int64
	CopyTransfers     atomic.Int64
	ReallocTotalNanos atomic.Int64
	Rollbacks         atomic.Int64
	Failures          atomic.Int64
}

// RecordAllocation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocation(slots int, bytes int64, err error) {
	if err != nil {
		b.AllocationErrors.Add(1)
		return
	}
	b.Allocations.Add(1)
	b.BytesAllocated.Add(bytes)
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(bytes int64) {
	b.BytesReleased.Add(bytes)
}

// RecordReallocation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReallocation(oldCap, newCap int, strategy Strategy, duration time.Duration) {
	b.Reallocations.Add(1)
	b.ReallocTotalNanos.Add(duration.Nanoseconds())
	switch strategy {
	case StrategyMove:
		b.MoveTransfers.Add(1)
	case StrategyCopy:
		b.CopyTransfers.Add(1)
	}
}

// RecordRollback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRollback(op string, err error) {
	b.Rollbacks.Add(1)
}

// RecordFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFailure(op string, err error) {
	b.Failures.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Allocations:      b.Allocations.Load(),
		AllocationErrors: b.AllocationErrors.Load(),
		BytesAllocated:   b.BytesAllocated.Load(),
		BytesReleased:    b.BytesReleased.Load(),
		Reallocations:    b.Reallocations.Load(),
		MoveTransfers:    b.MoveTransfers.Load(),
		CopyTransfers:    b.CopyTransfers.Load(),
		ReallocAvgNanos:  b.getAvgReallocNanos(),
		Rollbacks:        b.Rollbacks.Load(),
		Failures:         b.Failures.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgReallocNanos() int64 {
	count := b.Reallocations.Load()
	if count == 0 {
		return 0
	}
	return b.ReallocTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Allocations      int64
	AllocationErrors int64
	BytesAllocated   int64
	BytesReleased    int64
	Reallocations    int64
	MoveTransfers    int64
	CopyTransfers    int64
	ReallocAvgNanos  int64
	Rollbacks        int64
	Failures         int64
}
