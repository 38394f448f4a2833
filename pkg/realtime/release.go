//go:build !debug
// +build !debug

package realtime

// MarkAudioThread is a no-op in release builds.
func MarkAudioThread() {}

// UnmarkAudioThread is a no-op in release builds.
func UnmarkAudioThread() {}

// AssertAudioThread is a no-op in release builds.
func AssertAudioThread(operation string) {}
