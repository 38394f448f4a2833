//go:build debug
// +build debug

package simd

import "fmt"

// assertEqualLen panics on a buffer length mismatch in debug builds, per the
// spec's "programming error surfaced in debug builds" error-handling table.
func assertEqualLen(src, dst []float32) {
	if len(src) != len(dst) {
		panic(fmt.Sprintf("simd: length mismatch: len(src)=%d len(dst)=%d", len(src), len(dst)))
	}
}
