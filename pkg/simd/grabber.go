// Package simd implements the lane-batched rendering core shared by every
// voice kind: linear sample interpolation, the carry-over render_to protocol,
// and the SIMD-style summing helper. It knows nothing about pitch, envelopes,
// or MIDI — pkg/audio and pkg/channel build the synthesizer's domain logic on
// top of these primitives.
package simd

// LaneWidth is the number of float32 elements a generator produces per pull.
// Real SIMD dispatch would pick this at runtime from detected CPU features;
// the retrieval pack carries no such library for Go (see DESIGN.md), so this
// core fixes a width and unrolls loops to it, same as the reference engine's
// non-simdeez fallback path.
const LaneWidth = 8

// SampleReader is the backing store a Grabber interpolates from. Callers
// must guarantee that Get is safe to call one index past the last valid
// sample — a sentinel or padded tail — so the grabber never bounds-checks
// inside its hot loop.
type SampleReader interface {
	// Get returns the sample at index, or a sentinel (typically 0) if index
	// is the reader's designated one-past-end padding slot.
	Get(index int64) float32

	// IsPastEnd reports whether a fractional playback position has moved
	// past the end of the underlying sample data.
	IsPastEnd(pos float64) bool

	// SignalRelease notifies the backing store that playback is ending.
	// Most readers (a plain in-memory sample) have nothing to do here; a
	// streaming reader backed by a file handle or ring buffer can use this
	// to stop prefetching or release its buffer early on a Kill.
	SignalRelease(kind ReleaseType)
}

// Grabber performs lane-wise linear interpolation against a SampleReader.
type Grabber struct {
	Reader SampleReader
}

// NewGrabber wraps a reader for interpolated access.
func NewGrabber(reader SampleReader) Grabber {
	return Grabber{Reader: reader}
}

// Grab fetches LaneWidth interpolated samples. indices[i] is the integer
// sample index for lane i; fracs[i] is the fractional offset in [0,1)
// toward indices[i]+1.
func (g Grabber) Grab(indices [LaneWidth]int64, fracs [LaneWidth]float64) [LaneWidth]float32 {
	var out [LaneWidth]float32
	for i := 0; i < LaneWidth; i++ {
		s0 := g.Reader.Get(indices[i])
		s1 := g.Reader.Get(indices[i] + 1)
		f := fracs[i]
		out[i] = float32(float64(s0)*(1-f) + float64(s1)*f)
	}
	return out
}

// IsPastEnd delegates to the underlying reader.
func (g Grabber) IsPastEnd(pos float64) bool {
	return g.Reader.IsPastEnd(pos)
}

// SignalRelease delegates to the underlying reader.
func (g Grabber) SignalRelease(kind ReleaseType) {
	g.Reader.SignalRelease(kind)
}
