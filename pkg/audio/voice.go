package audio

import "github.com/opd-ai/polysynth/pkg/simd"

// ControlData is the per-render-tick control payload forwarded to every
// live voice: pitch bend plus the raw 7-bit MIDI CC table, both normalized.
// It is the Control type parameter every generator in this module is
// instantiated with.
type ControlData struct {
	// PitchBend is the channel's current bend amount in [-1,1].
	PitchBend float64
	// CC holds the last received value for each of the 128 MIDI controllers,
	// normalized to [0,1].
	CC [128]float32
}

// Raw returns the normalized value of controller cc, or 0 if cc is out of
// MIDI's 7-bit range.
func (c *ControlData) Raw(cc int) float32 {
	if cc < 0 || cc >= len(c.CC) {
		return 0
	}
	return c.CC[cc]
}

// SetRaw stores a normalized controller value, ignoring an out-of-range cc.
func (c *ControlData) SetRaw(cc int, value float32) {
	if cc < 0 || cc >= len(c.CC) {
		return
	}
	c.CC[cc] = value
}

// Voice is the capability set every sounding note exposes to its owning
// VoiceBuffer, regardless of whether it renders mono or interleaved stereo
// samples underneath. A voice owns its generator, envelope, and sample
// cursor; it is constructed by a ChannelSoundfont collaborator in response
// to a note-on or note-release event, rendered on each audio tick, and
// reaped once Ended reports true.
type Voice interface {
	// RenderTo additively writes samples into buf — stereo voices expect an
	// interleaved [L,R,L,R,...] buffer, mono voices a flat sample buffer.
	RenderTo(buf []float32)
	// ProcessControls applies the latest pitch bend / CC state.
	ProcessControls(control *ControlData)
	// SignalRelease commits the voice to ending, either via its natural
	// release envelope or an accelerated kill fade.
	SignalRelease(kind simd.ReleaseType)
	// Ended reports whether the voice has finished producing sound and is
	// ready to be reaped by its owning buffer.
	Ended() bool
	// IsReleasing reports whether SignalRelease has been called.
	IsReleasing() bool
	// IsKilled reports whether the voice was released with simd.ReleaseKill.
	IsKilled() bool
	// Velocity returns the MIDI velocity (0-127) the voice was spawned with.
	Velocity() uint8
	// Amplitude returns the voice's current instantaneous output level,
	// used by amplitude-priority rendering to rank voices when a key holds
	// more voices than its per-frame rendering cap.
	Amplitude() float32
}
