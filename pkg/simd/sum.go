package simd

// SumLaneWidth is the unroll factor for Sum, independent of LaneWidth since
// summing is a simpler, reader-free operation than generator pulls.
const SumLaneWidth = 8

// Sum adds src into dst lane-wise, src[i] += into dst[i], with an 8-wide
// unrolled loop and a scalar remainder for the tail. Both slices must have
// equal length in debug builds (see assertEqualLen); release builds process
// min(len(src), len(dst)) rather than panic. Empty slices are a no-op.
func Sum(src, dst []float32) {
	assertEqualLen(src, dst)

	n := len(src)
	if len(dst) < n {
		n = len(dst)
	}

	i := 0
	for ; i+SumLaneWidth <= n; i += SumLaneWidth {
		dst[i+0] += src[i+0]
		dst[i+1] += src[i+1]
		dst[i+2] += src[i+2]
		dst[i+3] += src[i+3]
		dst[i+4] += src[i+4]
		dst[i+5] += src[i+5]
		dst[i+6] += src[i+6]
		dst[i+7] += src[i+7]
	}
	for ; i < n; i++ {
		dst[i] += src[i]
	}
}
