package audio

import (
	"github.com/opd-ai/polysynth/pkg/simd"
)

// PaddedSampleReader adapts a plain []float32 sample into simd.SampleReader.
// It pads its logical end with one sentinel zero sample so the grabber's
// s1 = reader.Get(index+1) fetch at the final valid index never needs a
// bounds check in the hot path; the boundary contract documented by
// simd.SampleReader is satisfied exactly at index len(Samples).
type PaddedSampleReader struct {
	Samples []float32
}

// NewPaddedSampleReader wraps samples for interpolated playback.
func NewPaddedSampleReader(samples []float32) *PaddedSampleReader {
	return &PaddedSampleReader{Samples: samples}
}

// Get returns Samples[index], or 0 for the one-past-end sentinel slot and
// any further out-of-range index.
func (r *PaddedSampleReader) Get(index int64) float32 {
	if index < 0 || index >= int64(len(r.Samples)) {
		return 0
	}
	return r.Samples[index]
}

// IsPastEnd reports whether a fractional playback position has moved past
// the last valid sample.
func (r *PaddedSampleReader) IsPastEnd(pos float64) bool {
	return pos >= float64(len(r.Samples)-1)
}

// SignalRelease is a no-op: a plain in-memory sample has nothing to release
// early. Present only to satisfy simd.SampleReader's capability set.
func (r *PaddedSampleReader) SignalRelease(kind simd.ReleaseType) {}

// SampleReaderProvider is an alias for simd.SampleReader; kept as its own
// name so call sites read in domain terms.
type SampleReaderProvider = simd.SampleReader

// samplerCore holds the state shared by a sampler's mono and stereo
// generators: playback cursor, pitch, envelope, and release bookkeeping.
// It implements the simd.Generator[ControlData] half of MonoGenerator /
// StereoGenerator; SamplerMonoGenerator and SamplerStereoGenerator each add
// the NextBlock half for their own channel layout.
type samplerCore struct {
	grabber    simd.Grabber
	envelope   *ADSREnvelope
	sampleRate float64

	pos      float64 // fractional sample index
	baseRate float64 // native playback rate in samples/frame at pitch 1.0, before bend
	rate     float64 // baseRate with the latest pitch bend applied
	pan      float32 // -1 (left) .. 1 (right), stereo only
	bend     *PitchBendProcessor

	velocity  uint8
	killed    bool
	releasing bool
}

func newSamplerCore(reader SampleReaderProvider, sampleRate, noteFreq, sourceFreq float64, velocity uint8, pan float32, env *ADSREnvelope) samplerCore {
	rate := noteFreq / sourceFreq
	return samplerCore{
		grabber:    simd.NewGrabber(reader),
		envelope:   env,
		sampleRate: sampleRate,
		baseRate:   rate,
		rate:       rate,
		velocity:   velocity,
		pan:        pan,
		bend:       NewPitchBendProcessor(2.0), // +/-2 semitones, standard MIDI default
	}
}

func (c *samplerCore) ProcessControls(control *ControlData) {
	c.rate = c.bend.ApplyPitchBend(c.baseRate, control.PitchBend)
}

func (c *samplerCore) SignalRelease(kind simd.ReleaseType) {
	// A Kill may still accelerate a standard release; anything else after
	// the first release is ignored.
	if c.killed || (c.releasing && kind != simd.ReleaseKill) {
		return
	}
	c.releasing = true
	switch kind {
	case simd.ReleaseKill:
		c.killed = true
		c.envelope.Kill(DefaultKillTime)
	default:
		c.envelope.Release()
	}
	c.grabber.SignalRelease(kind)
}

func (c *samplerCore) Ended() bool {
	return c.envelope.Ended() || c.grabber.IsPastEnd(c.pos)
}

func (c *samplerCore) IsReleasing() bool  { return c.envelope.IsReleasing() }
func (c *samplerCore) IsKilled() bool     { return c.killed }
func (c *samplerCore) Velocity() uint8    { return c.velocity }
func (c *samplerCore) Amplitude() float32 { return float32(c.envelope.CurrentValue) }

// grabBlock advances the playback cursor by LaneWidth frames, fetching one
// lane-wide interpolated block from the grabber and applying the envelope
// per lane. Shared by the mono and stereo generators' NextBlock.
func (c *samplerCore) grabBlock() [simd.LaneWidth]float32 {
	var indices [simd.LaneWidth]int64
	var fracs [simd.LaneWidth]float64
	for i := 0; i < simd.LaneWidth; i++ {
		indices[i] = int64(c.pos)
		fracs[i] = c.pos - float64(indices[i])
		c.pos += c.rate
	}

	block := c.grabber.Grab(indices, fracs)
	for i := range block {
		block[i] *= float32(c.envelope.Process())
	}
	return block
}

// SamplerMonoGenerator implements simd.MonoGenerator[ControlData] for a
// single-channel sample playback voice.
type SamplerMonoGenerator struct {
	samplerCore
}

// NewSamplerMonoGenerator builds a mono sampler generator reading from
// reader at sourceFreq, retuned to noteFreq.
func NewSamplerMonoGenerator(reader SampleReaderProvider, sampleRate, noteFreq, sourceFreq float64, velocity uint8, env *ADSREnvelope) *SamplerMonoGenerator {
	return &SamplerMonoGenerator{newSamplerCore(reader, sampleRate, noteFreq, sourceFreq, velocity, 0, env)}
}

// NextBlock produces LaneWidth mono samples.
func (g *SamplerMonoGenerator) NextBlock() [simd.LaneWidth]float32 {
	return g.grabBlock()
}

// SamplerStereoGenerator implements simd.StereoGenerator[ControlData],
// panning a mono source across the stereo field with constant-power gains.
type SamplerStereoGenerator struct {
	samplerCore
}

// NewSamplerStereoGenerator builds a stereo sampler generator.
func NewSamplerStereoGenerator(reader SampleReaderProvider, sampleRate, noteFreq, sourceFreq float64, velocity uint8, pan float32, env *ADSREnvelope) *SamplerStereoGenerator {
	return &SamplerStereoGenerator{newSamplerCore(reader, sampleRate, noteFreq, sourceFreq, velocity, pan, env)}
}

// NextBlock produces LaneWidth interleaved stereo frames.
func (g *SamplerStereoGenerator) NextBlock() [2 * simd.LaneWidth]float32 {
	mono := g.grabBlock()
	leftGain, rightGain := Pan(g.pan)
	var block [2 * simd.LaneWidth]float32
	for i := 0; i < simd.LaneWidth; i++ {
		block[2*i] = mono[i] * leftGain
		block[2*i+1] = mono[i] * rightGain
	}
	return block
}

// SamplerVoice is the concrete Voice implementation a ChannelSoundfont
// collaborator hands back from spawn_voices_attack / spawn_voices_release:
// a single sample played back through the SIMD carry-over render protocol,
// mono or stereo depending on construction.
type SamplerVoice struct {
	mono   *simd.MonoVoice[ControlData]
	stereo *simd.StereoVoice[ControlData]
	core   *samplerCore
}

// NewMonoSamplerVoice wraps a mono generator in the carry-over render
// protocol and triggers its envelope.
func NewMonoSamplerVoice(gen *SamplerMonoGenerator) *SamplerVoice {
	gen.envelope.Trigger()
	return &SamplerVoice{mono: simd.NewMonoVoice[ControlData](gen), core: &gen.samplerCore}
}

// NewStereoSamplerVoice wraps a stereo generator in the carry-over render
// protocol and triggers its envelope.
func NewStereoSamplerVoice(gen *SamplerStereoGenerator) *SamplerVoice {
	gen.envelope.Trigger()
	return &SamplerVoice{stereo: simd.NewStereoVoice[ControlData](gen), core: &gen.samplerCore}
}

// RenderTo dispatches to whichever underlying carry-over voice was built.
func (v *SamplerVoice) RenderTo(buf []float32) {
	if v.mono != nil {
		v.mono.RenderTo(buf)
		return
	}
	v.stereo.RenderTo(buf)
}

func (v *SamplerVoice) ProcessControls(control *ControlData) { v.core.ProcessControls(control) }
func (v *SamplerVoice) SignalRelease(kind simd.ReleaseType)  { v.core.SignalRelease(kind) }
func (v *SamplerVoice) Ended() bool                          { return v.core.Ended() }
func (v *SamplerVoice) IsReleasing() bool                    { return v.core.IsReleasing() }
func (v *SamplerVoice) IsKilled() bool                       { return v.core.IsKilled() }
func (v *SamplerVoice) Velocity() uint8                      { return v.core.Velocity() }
func (v *SamplerVoice) Amplitude() float32                   { return v.core.Amplitude() }
