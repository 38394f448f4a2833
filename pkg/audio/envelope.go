package audio

import (
	"math"
)

// EnvelopeStage represents the current stage of an ADSR envelope
type EnvelopeStage int

const (
	EnvelopeStageIdle EnvelopeStage = iota
	EnvelopeStageAttack
	EnvelopeStageDecay
	EnvelopeStageSustain
	EnvelopeStageRelease
	// EnvelopeStageKill is a fast, fixed-length fade-out distinct from the
	// ordinary release stage. It is used when a voice is stolen and
	// fade-out killing is enabled, instead of the note's configured
	// Release time, so stolen groups fade in a short, consistent window
	// rather than inheriting a potentially long release tail.
	EnvelopeStageKill
)

// DefaultKillTime is the fade-out duration, in seconds, applied on Kill.
const DefaultKillTime = 0.03

// ADSREnvelope represents an ADSR (Attack, Decay, Sustain, Release) envelope generator
type ADSREnvelope struct {
	// Parameters (in seconds)
	Attack      float64
	Decay       float64
	Sustain     float64 // Level (0-1), not time
	ReleaseTime float64

	// State
	Stage        EnvelopeStage
	CurrentValue float64
	TimeInStage  float64
	ReleaseLevel float64 // Level when release was triggered

	// killTime is the fade duration used while Stage == EnvelopeStageKill.
	killTime float64

	// released records a Release or Kill since the last Trigger, so
	// IsReleasing stays true after the fade has reached idle.
	released bool

	// Configuration
	SampleRate float64
}

// NewADSREnvelope creates a new ADSR envelope with default values
func NewADSREnvelope(sampleRate float64) *ADSREnvelope {
	return &ADSREnvelope{
		Attack:      0.01, // 10ms
		Decay:       0.1,  // 100ms
		Sustain:     0.7,  // 70%
		ReleaseTime: 0.3,  // 300ms
		SampleRate:  sampleRate,
		Stage:       EnvelopeStageIdle,
	}
}

// Trigger starts the envelope from the attack stage
func (env *ADSREnvelope) Trigger() {
	env.Stage = EnvelopeStageAttack
	env.TimeInStage = 0
	env.CurrentValue = 0
	env.released = false
}

// Release moves the envelope to the release stage. Once killed, a note
// never falls back to the slower standard release.
func (env *ADSREnvelope) Release() {
	if env.Stage != EnvelopeStageIdle && env.Stage != EnvelopeStageRelease && env.Stage != EnvelopeStageKill {
		env.ReleaseLevel = env.CurrentValue
		env.Stage = EnvelopeStageRelease
		env.TimeInStage = 0
		env.released = true
	}
}

// Kill forces an accelerated fade-out over fastRelease seconds, used when a
// voice is stolen and fade-out killing is enabled rather than hard-dropped.
// An envelope in its standard release switches to the kill fade from its
// current level. An envelope already killed or idle is left alone: release
// monotonicity forbids reviving or re-timing a kill fade in progress.
func (env *ADSREnvelope) Kill(fastRelease float64) {
	if env.Stage == EnvelopeStageKill || env.Stage == EnvelopeStageIdle {
		return
	}
	env.ReleaseLevel = env.CurrentValue
	env.killTime = fastRelease
	env.Stage = EnvelopeStageKill
	env.TimeInStage = 0
	env.released = true
}

// Process advances the envelope by one sample and returns the current value
func (env *ADSREnvelope) Process() float64 {
	sampleDuration := 1.0 / env.SampleRate

	switch env.Stage {
	case EnvelopeStageIdle:
		env.CurrentValue = 0

	case EnvelopeStageAttack:
		if env.Attack > 0 {
			env.CurrentValue = env.TimeInStage / env.Attack
			if env.CurrentValue >= 1.0 {
				env.CurrentValue = 1.0
				env.Stage = EnvelopeStageDecay
				env.TimeInStage = 0
			} else {
				env.TimeInStage += sampleDuration
			}
		} else {
			env.CurrentValue = 1.0
			env.Stage = EnvelopeStageDecay
			env.TimeInStage = 0
		}

	case EnvelopeStageDecay:
		if env.Decay > 0 {
			decayProgress := env.TimeInStage / env.Decay
			env.CurrentValue = 1.0 - decayProgress*(1.0-env.Sustain)
			if decayProgress >= 1.0 {
				env.CurrentValue = env.Sustain
				env.Stage = EnvelopeStageSustain
				env.TimeInStage = 0
			} else {
				env.TimeInStage += sampleDuration
			}
		} else {
			env.CurrentValue = env.Sustain
			env.Stage = EnvelopeStageSustain
			env.TimeInStage = 0
		}

	case EnvelopeStageSustain:
		env.CurrentValue = env.Sustain

	case EnvelopeStageRelease:
		if env.ReleaseTime > 0 {
			releaseProgress := env.TimeInStage / env.ReleaseTime
			if releaseProgress >= 1.0 {
				env.CurrentValue = 0
				env.Stage = EnvelopeStageIdle
				env.TimeInStage = 0
			} else {
				// Quadratic release curve
				env.CurrentValue = env.ReleaseLevel * math.Pow(1.0-releaseProgress, 2.0)
				env.TimeInStage += sampleDuration
			}
		} else {
			env.CurrentValue = 0
			env.Stage = EnvelopeStageIdle
			env.TimeInStage = 0
		}

	case EnvelopeStageKill:
		if env.killTime > 0 {
			killProgress := env.TimeInStage / env.killTime
			if killProgress >= 1.0 {
				env.CurrentValue = 0
				env.Stage = EnvelopeStageIdle
				env.TimeInStage = 0
			} else {
				// Linear fade: a kill is meant to be short and predictable,
				// not a second curved release.
				env.CurrentValue = env.ReleaseLevel * (1.0 - killProgress)
				env.TimeInStage += sampleDuration
			}
		} else {
			env.CurrentValue = 0
			env.Stage = EnvelopeStageIdle
			env.TimeInStage = 0
		}
	}

	return env.CurrentValue
}

// IsActive returns true if the envelope is currently generating a non-zero value
func (env *ADSREnvelope) IsActive() bool {
	return env.Stage != EnvelopeStageIdle
}

// IsReleasing reports whether the envelope has committed to ending the
// note, whether via the standard release or a kill fade. It stays true
// once the fade has finished, until the next Trigger or Reset.
func (env *ADSREnvelope) IsReleasing() bool {
	return env.released
}

// IsKilled reports whether the envelope is in the accelerated kill fade.
func (env *ADSREnvelope) IsKilled() bool {
	return env.Stage == EnvelopeStageKill
}

// Ended reports whether the envelope has fully decayed to silence.
func (env *ADSREnvelope) Ended() bool {
	return env.Stage == EnvelopeStageIdle && env.CurrentValue == 0 && env.TimeInStage == 0
}

// Reset immediately resets the envelope to idle state
func (env *ADSREnvelope) Reset() {
	env.Stage = EnvelopeStageIdle
	env.CurrentValue = 0
	env.TimeInStage = 0
	env.released = false
}

// SetADSR sets all ADSR parameters at once
func (env *ADSREnvelope) SetADSR(attack, decay, sustain, release float64) {
	env.Attack = Clamp(attack, 0, 10.0)
	env.Decay = Clamp(decay, 0, 10.0)
	env.Sustain = Clamp(sustain, 0, 1.0)
	env.ReleaseTime = Clamp(release, 0, 10.0)
}
