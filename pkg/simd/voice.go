package simd

// ReleaseType distinguishes a voice's natural release envelope from an
// accelerated fade-out used when stealing a voice for its slot.
type ReleaseType int

const (
	// ReleaseStandard triggers the voice's ordinary release phase.
	ReleaseStandard ReleaseType = iota
	// ReleaseKill forces a short fade-out, used when a voice is stolen and
	// fade-out killing is enabled rather than hard-dropping it.
	ReleaseKill
)

func (r ReleaseType) String() string {
	if r == ReleaseKill {
		return "kill"
	}
	return "standard"
}

// Generator is the capability set every voice kind exposes regardless of
// whether it renders mono or interleaved stereo blocks.
type Generator[Control any] interface {
	ProcessControls(control *Control)
	SignalRelease(kind ReleaseType)
	Ended() bool
	IsReleasing() bool
	IsKilled() bool
	Velocity() uint8
	Amplitude() float32
}

// MonoGenerator produces one lane-wide block of mono samples per pull.
type MonoGenerator[Control any] interface {
	Generator[Control]
	NextBlock() [LaneWidth]float32
}

// StereoGenerator produces one lane-wide block of interleaved stereo frames
// per pull: LaneWidth frames, 2*LaneWidth floats, ordered [L0,R0,L1,R1,...].
type StereoGenerator[Control any] interface {
	Generator[Control]
	NextBlock() [2 * LaneWidth]float32
}

// MonoVoice adapts a MonoGenerator to arbitrary output buffer lengths,
// carrying leftover lanes across successive RenderTo calls.
type MonoVoice[Control any] struct {
	gen          MonoGenerator[Control]
	remainder    [LaneWidth]float32
	remainderPos int
}

// NewMonoVoice wraps gen. The remainder starts empty (remainderPos ==
// LaneWidth), matching the spec's initial state.
func NewMonoVoice[Control any](gen MonoGenerator[Control]) *MonoVoice[Control] {
	return &MonoVoice[Control]{gen: gen, remainderPos: LaneWidth}
}

// Generator returns the wrapped generator, for callers that need direct
// access to ProcessControls/SignalRelease/Ended and friends.
func (v *MonoVoice[Control]) Generator() MonoGenerator[Control] {
	return v.gen
}

// RenderTo additively writes buf.len() mono samples, draining any carried
// remainder first, then pulling full blocks, then parking the unconsumed
// tail of the final pull back into the remainder for the next call.
func (v *MonoVoice[Control]) RenderTo(buf []float32) {
	n := 0

	// Drain.
	for v.remainderPos < LaneWidth && n < len(buf) {
		buf[n] += v.remainder[v.remainderPos]
		v.remainderPos++
		n++
	}

	// Bulk.
	for len(buf)-n >= LaneWidth {
		block := v.gen.NextBlock()
		for i := 0; i < LaneWidth; i++ {
			buf[n+i] += block[i]
		}
		n += LaneWidth
	}

	// Tail.
	if n < len(buf) {
		v.remainder = v.gen.NextBlock()
		v.remainderPos = 0
		for v.remainderPos < LaneWidth && n < len(buf) {
			buf[n] += v.remainder[v.remainderPos]
			v.remainderPos++
			n++
		}
	}
}

// StereoVoice is the interleaved-stereo counterpart of MonoVoice. One
// generator pull yields LaneWidth frames, so the remainder holds 2*LaneWidth
// interleaved floats and the drain/bulk/tail phases advance in frame units.
type StereoVoice[Control any] struct {
	gen          StereoGenerator[Control]
	remainder    [2 * LaneWidth]float32
	remainderPos int // in frames, 0..LaneWidth
}

// NewStereoVoice wraps gen with an empty remainder.
func NewStereoVoice[Control any](gen StereoGenerator[Control]) *StereoVoice[Control] {
	return &StereoVoice[Control]{gen: gen, remainderPos: LaneWidth}
}

// Generator returns the wrapped generator.
func (v *StereoVoice[Control]) Generator() StereoGenerator[Control] {
	return v.gen
}

// RenderTo additively writes interleaved stereo frames into buf, which must
// hold an even number of floats (len(buf)/2 frames).
func (v *StereoVoice[Control]) RenderTo(buf []float32) {
	frames := len(buf) / 2
	n := 0 // frames written

	// Drain.
	for v.remainderPos < LaneWidth && n < frames {
		buf[2*n] += v.remainder[2*v.remainderPos]
		buf[2*n+1] += v.remainder[2*v.remainderPos+1]
		v.remainderPos++
		n++
	}

	// Bulk.
	for frames-n >= LaneWidth {
		block := v.gen.NextBlock()
		for i := 0; i < LaneWidth; i++ {
			buf[2*(n+i)] += block[2*i]
			buf[2*(n+i)+1] += block[2*i+1]
		}
		n += LaneWidth
	}

	// Tail.
	if n < frames {
		v.remainder = v.gen.NextBlock()
		v.remainderPos = 0
		for v.remainderPos < LaneWidth && n < frames {
			buf[2*n] += v.remainder[2*v.remainderPos]
			buf[2*n+1] += v.remainder[2*v.remainderPos+1]
			v.remainderPos++
			n++
		}
	}
}
