//go:build debug
// +build debug

// Package realtime asserts, in debug builds, that KeyData's two render-path
// entry points — SendEvent and RenderTo — are only ever invoked from a
// goroutine that has registered itself as an audio thread. That is this
// core's one hard concurrency invariant (spec §5: per-key state is
// exclusively owned by whichever thread is currently rendering that key).
// Release builds compile the assertion down to a no-op so it costs
// nothing on the hot path.
package realtime

import (
	"fmt"
	"runtime"
)

// audioThreadIDs is the set of goroutine ids registered via MarkAudioThread.
// A set, not a single id, because spec §5 permits "a small, fixed worker
// pool dispatched from one coordinator" in place of a single audio thread.
var audioThreadIDs = make(map[uint64]bool)

// MarkAudioThread registers the calling goroutine as an audio-render
// thread. Called once per worker during setup — never from render_to
// itself.
func MarkAudioThread() {
	audioThreadIDs[goroutineID()] = true
}

// UnmarkAudioThread removes the calling goroutine from the registered set,
// for a worker pool member that is retiring.
func UnmarkAudioThread() {
	delete(audioThreadIDs, goroutineID())
}

// AssertAudioThread panics if the calling goroutine was never marked,
// catching a KeyData method called from the wrong place (an event-producer
// thread, a UI goroutine) during development.
func AssertAudioThread(operation string) {
	id := goroutineID()
	if !audioThreadIDs[id] {
		panic(fmt.Sprintf("realtime: %s called from non-audio-thread goroutine %d", operation, id))
	}
}

// goroutineID extracts the goroutine id growing out of runtime.Stack's
// "goroutine <id> [...]" header — Go has no public API for this.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	for i := 9; i < n-1; i++ {
		if buf[i] == ' ' {
			id := uint64(0)
			for j := i + 1; j < n; j++ {
				if buf[j] < '0' || buf[j] > '9' {
					break
				}
				id = id*10 + uint64(buf[j]-'0')
			}
			return id
		}
	}
	return 0
}
