// Package monitor provides real-time performance monitoring and allocation
// tracking for the render path, including counters for the voice steals,
// damper flushes and kill-alls surfaced by pkg/channel. It does no logging
// of its own. It validates this core's
// zero-allocation steady-state claim and reports polyphony/render-timing
// gauges to an embedding application.
package monitor

import (
	"runtime"
	"sync/atomic"
)

// AllocationTracker measures heap allocations made during a render tick.
// Go exposes no custom-allocator hook a real-time audio core could call
// into directly, so this brackets StartBuffer/EndBuffer with
// runtime.MemStats.Mallocs snapshots — the same technique
// testing.AllocsPerRun uses internally — and reports the delta as the
// tick's allocation count. Reading MemStats is itself not cheap, so this
// is a debug/benchmark harness concern, never called from render_to.
type AllocationTracker struct {
	enabled bool

	mallocsAtStart uint64

	totalAllocs        uint64 // cumulative allocations across all buffers (atomic)
	maxAllocsPerBuffer uint64 // worst single-buffer allocation count (atomic)
	lastBufferAllocs   uint64 // allocations in the most recently closed buffer (atomic)
}

// NewAllocationTracker creates an enabled allocation tracker.
func NewAllocationTracker() *AllocationTracker {
	return &AllocationTracker{enabled: true}
}

// Enable enables allocation tracking.
func (at *AllocationTracker) Enable() {
	at.enabled = true
}

// Disable disables allocation tracking; StartBuffer/EndBuffer become no-ops.
func (at *AllocationTracker) Disable() {
	at.enabled = false
}

// StartBuffer snapshots the runtime's cumulative Mallocs count ahead of a
// render tick.
func (at *AllocationTracker) StartBuffer() {
	if !at.enabled {
		return
	}
	at.mallocsAtStart = readMallocs()
}

// EndBuffer diffs against the snapshot StartBuffer took and records how
// many heap objects the just-finished render tick allocated.
func (at *AllocationTracker) EndBuffer() {
	if !at.enabled {
		return
	}

	delta := readMallocs() - at.mallocsAtStart
	atomic.AddUint64(&at.totalAllocs, delta)
	atomic.StoreUint64(&at.lastBufferAllocs, delta)

	for {
		max := atomic.LoadUint64(&at.maxAllocsPerBuffer)
		if delta <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&at.maxAllocsPerBuffer, max, delta) {
			break
		}
	}
}

// readMallocs returns the runtime's cumulative count of heap objects
// allocated so far.
func readMallocs() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Mallocs
}

// GetStats returns current allocation statistics.
func (at *AllocationTracker) GetStats() AllocationStats {
	return AllocationStats{
		TotalAllocations:   atomic.LoadUint64(&at.totalAllocs),
		MaxAllocsPerBuffer: atomic.LoadUint64(&at.maxAllocsPerBuffer),
		LastBufferAllocs:   atomic.LoadUint64(&at.lastBufferAllocs),
	}
}

// Reset zeroes all allocation statistics.
func (at *AllocationTracker) Reset() {
	atomic.StoreUint64(&at.totalAllocs, 0)
	atomic.StoreUint64(&at.maxAllocsPerBuffer, 0)
	atomic.StoreUint64(&at.lastBufferAllocs, 0)
}

// AllocationStats is a point-in-time snapshot of AllocationTracker.
type AllocationStats struct {
	TotalAllocations   uint64
	MaxAllocsPerBuffer uint64
	LastBufferAllocs   uint64
}
