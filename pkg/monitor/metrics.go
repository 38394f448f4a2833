package monitor

import (
	"sync/atomic"
	"time"
)

// PerformanceMetrics tracks the render-path gauges this core's design
// notes promise an embedding application: render_to duration against the
// block's real-time deadline, the polyphony high-water mark, and the
// control-rate events that reshape a key's voice set (steals, damper-pedal
// flushes, kills). Every field is wired from a real pkg/channel call site;
// there is no event-batch or GC-pause bookkeeping left over from a plugin
// host that never existed in this domain.
type PerformanceMetrics struct {
	// Render timing, fed by StartProcess/EndProcess bracketing RenderTo.
	processTime      int64 // last render_to duration in nanoseconds (atomic)
	maxProcessTime   int64 // worst-case duration seen (atomic)
	totalProcessTime int64 // running total, for the average (atomic)
	processCallCount uint64

	// bufferUnderruns counts render_to calls that ran past 80% of the
	// block's deadline (frameCount/sampleRate).
	bufferUnderruns uint64

	// Voice-count gauges, fed by KeyData.RenderTo's post-reap count.
	maxVoicesUsed     int32
	currentVoicesUsed int32

	// Control-rate event counters. None of these are touched from
	// render_to's decision logic — only from VoiceBuffer's steal/damper/
	// kill paths, which run at event-arrival rate, not sample rate.
	voiceStealEvents  uint64 // groups stolen by popQuietestVoiceGroup
	damperFlushEvents uint64 // groups released by a damper pedal-up flush
	killAllEvents     uint64 // AllKilled dispatches (KillAllVoices calls)

	sampleRate uint32
	frameCount uint32
}

// NewPerformanceMetrics creates a tracker for a channel rendering
// frameCount-sample blocks at sampleRate.
func NewPerformanceMetrics(sampleRate, frameCount uint32) *PerformanceMetrics {
	return &PerformanceMetrics{
		sampleRate: sampleRate,
		frameCount: frameCount,
	}
}

// StartProcess marks the beginning of a render_to call.
func (pm *PerformanceMetrics) StartProcess() time.Time {
	return time.Now()
}

// EndProcess marks the end of a render_to call, updating timing stats and
// the underrun counter against the block's real-time deadline.
func (pm *PerformanceMetrics) EndProcess(startTime time.Time) {
	duration := time.Since(startTime).Nanoseconds()

	atomic.StoreInt64(&pm.processTime, duration)

	for {
		max := atomic.LoadInt64(&pm.maxProcessTime)
		if duration <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&pm.maxProcessTime, max, duration) {
			break
		}
	}

	atomic.AddInt64(&pm.totalProcessTime, duration)
	atomic.AddUint64(&pm.processCallCount, 1)

	bufferDuration := int64(pm.frameCount) * int64(time.Second) / int64(pm.sampleRate)
	threshold := bufferDuration * 80 / 100 // 80% of the block's deadline
	if duration > threshold {
		atomic.AddUint64(&pm.bufferUnderruns, 1)
	}
}

// UpdateVoiceCount records the voice count a key held after its most
// recent render_to, updating the high-water mark if needed.
func (pm *PerformanceMetrics) UpdateVoiceCount(count int32) {
	atomic.StoreInt32(&pm.currentVoicesUsed, count)

	for {
		max := atomic.LoadInt32(&pm.maxVoicesUsed)
		if count <= max {
			break
		}
		if atomic.CompareAndSwapInt32(&pm.maxVoicesUsed, max, count) {
			break
		}
	}
}

// RecordVoiceSteal increments the steal counter. Called by VoiceBuffer
// whenever popQuietestVoiceGroup evicts a group to stay within budget.
func (pm *PerformanceMetrics) RecordVoiceSteal() {
	atomic.AddUint64(&pm.voiceStealEvents, 1)
}

// RecordDamperFlush tallies how many groups a damper pedal-up transition
// just released from hold. Called by VoiceBuffer.SetDamper.
func (pm *PerformanceMetrics) RecordDamperFlush(groupsReleased int) {
	if groupsReleased <= 0 {
		return
	}
	atomic.AddUint64(&pm.damperFlushEvents, uint64(groupsReleased))
}

// RecordKillAll increments the all-sound-off counter. Called by
// VoiceBuffer.KillAllVoices.
func (pm *PerformanceMetrics) RecordKillAll() {
	atomic.AddUint64(&pm.killAllEvents, 1)
}

// GetStats returns a snapshot of current performance statistics.
func (pm *PerformanceMetrics) GetStats() PerformanceStats {
	processCount := atomic.LoadUint64(&pm.processCallCount)
	totalTime := atomic.LoadInt64(&pm.totalProcessTime)

	avgProcessTime := int64(0)
	if processCount > 0 {
		avgProcessTime = totalTime / int64(processCount)
	}

	return PerformanceStats{
		ProcessTime:       time.Duration(atomic.LoadInt64(&pm.processTime)),
		MaxProcessTime:    time.Duration(atomic.LoadInt64(&pm.maxProcessTime)),
		AvgProcessTime:    time.Duration(avgProcessTime),
		ProcessCallCount:  processCount,
		BufferUnderruns:   atomic.LoadUint64(&pm.bufferUnderruns),
		MaxVoicesUsed:     atomic.LoadInt32(&pm.maxVoicesUsed),
		CurrentVoicesUsed: atomic.LoadInt32(&pm.currentVoicesUsed),
		VoiceStealEvents:  atomic.LoadUint64(&pm.voiceStealEvents),
		DamperFlushEvents: atomic.LoadUint64(&pm.damperFlushEvents),
		KillAllEvents:     atomic.LoadUint64(&pm.killAllEvents),
	}
}

// Reset zeroes every counter.
func (pm *PerformanceMetrics) Reset() {
	atomic.StoreInt64(&pm.processTime, 0)
	atomic.StoreInt64(&pm.maxProcessTime, 0)
	atomic.StoreInt64(&pm.totalProcessTime, 0)
	atomic.StoreUint64(&pm.processCallCount, 0)
	atomic.StoreUint64(&pm.bufferUnderruns, 0)
	atomic.StoreInt32(&pm.maxVoicesUsed, 0)
	atomic.StoreInt32(&pm.currentVoicesUsed, 0)
	atomic.StoreUint64(&pm.voiceStealEvents, 0)
	atomic.StoreUint64(&pm.damperFlushEvents, 0)
	atomic.StoreUint64(&pm.killAllEvents, 0)
}

// PerformanceStats is a point-in-time snapshot of PerformanceMetrics.
type PerformanceStats struct {
	ProcessTime      time.Duration
	MaxProcessTime   time.Duration
	AvgProcessTime   time.Duration
	ProcessCallCount uint64

	BufferUnderruns uint64

	MaxVoicesUsed     int32
	CurrentVoicesUsed int32

	VoiceStealEvents  uint64
	DamperFlushEvents uint64
	KillAllEvents     uint64
}
