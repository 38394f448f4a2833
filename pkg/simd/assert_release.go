//go:build !debug
// +build !debug

package simd

// assertEqualLen is a no-op in release builds; Sum falls back to processing
// the shorter of the two slices.
func assertEqualLen(src, dst []float32) {}
