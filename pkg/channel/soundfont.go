package channel

import "github.com/opd-ai/polysynth/pkg/audio"

// ChannelSoundfont is the external collaborator this core renders against.
// It owns sample data and voice construction; the core never parses a
// SoundFont file or decodes samples itself. Both methods may return an
// empty slice — spawning nothing is a valid, silently-dropped response.
type ChannelSoundfont interface {
	// SpawnVoicesAttack returns the voices a key's note-on should produce.
	// All returned voices share one group id, assigned by the VoiceBuffer
	// they're pushed into.
	SpawnVoicesAttack(control *audio.ControlData, key uint8, velocity uint8) []audio.Voice

	// SpawnVoicesRelease returns release-phase voices (e.g. a key-off
	// sample) produced in response to a note-off, given the velocity the
	// released group carried.
	SpawnVoicesRelease(control *audio.ControlData, key uint8, velocity uint8) []audio.Voice
}

// ChannelInitOptions is immutable configuration for a channel's keys,
// constructed once by the embedding application.
type ChannelInitOptions struct {
	// FadeOutKilling selects the stealing policy: steal by forcing a Kill
	// release instead of hard-dropping voices.
	FadeOutKilling bool
	// MaxVoicesPerFrame caps how many voices a single key renders per
	// tick; must be >= 1. Excess voices are skipped by amplitude.
	MaxVoicesPerFrame int
}
