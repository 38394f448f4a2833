package main

import (
	"github.com/opd-ai/polysynth/pkg/audio"
)

// sineSoundfont is an in-memory, fake ChannelSoundfont: every attack
// synthesizes a short stereo burst at the key's pitch instead of reading
// real sample data. A velocity at or above brightVelocityThreshold gets a
// PolyBLEP sawtooth run through a state-variable lowpass for a brighter,
// slightly filtered timbre; softer attacks stay a plain sine. It exists
// purely to exercise the render path end to end; it is explicitly not a
// product SoundFont implementation.
type sineSoundfont struct {
	sampleRate float64
	duration   float64 // seconds of sample data per voice
}

// brightVelocityThreshold selects the sawtooth+filter voice over the plain
// sine for harder-played notes.
const brightVelocityThreshold = 80

func newSineSoundfont(sampleRate float64) *sineSoundfont {
	return &sineSoundfont{sampleRate: sampleRate, duration: 2.0}
}

// SpawnVoicesAttack synthesizes one stereo voice per note-on, tuned to the
// key via audio.NoteToFrequency.
func (sf *sineSoundfont) SpawnVoicesAttack(control *audio.ControlData, key uint8, velocity uint8) []audio.Voice {
	freq := audio.NoteToFrequency(int(key))
	samples := sf.renderTone(freq, velocity)
	reader := audio.NewPaddedSampleReader(samples)
	env := audio.NewADSREnvelope(sf.sampleRate)
	env.SetADSR(0.005, 0.05, 0.8, 0.4)

	// The sample data is already baked at the note's pitch, so playback
	// rate is 1:1 (noteFreq == sourceFreq); only ProcessControls' pitch
	// bend perturbs it afterward.
	gen := audio.NewSamplerStereoGenerator(reader, sf.sampleRate, 1.0, 1.0, velocity, 0, env)
	return []audio.Voice{audio.NewStereoSamplerVoice(gen)}
}

// SpawnVoicesRelease returns no voices: this fake soundfont has no distinct
// key-off sample.
func (sf *sineSoundfont) SpawnVoicesRelease(control *audio.ControlData, key uint8, velocity uint8) []audio.Voice {
	return nil
}

// renderTone bakes sf.duration seconds of a waveform at freq. Velocities at
// or above brightVelocityThreshold get an anti-aliased PolyBLEP sawtooth run
// through a state-variable lowpass voiced a few octaves above the
// fundamental, imitating a bright sample darkened slightly in the filter;
// softer velocities stay a plain sine.
func (sf *sineSoundfont) renderTone(freq float64, velocity uint8) []float32 {
	n := int(sf.duration * sf.sampleRate)
	out := make([]float32, n)

	if velocity < brightVelocityThreshold {
		phase := 0.0
		for i := range out {
			out[i] = float32(audio.GenerateWaveformSample(phase, audio.WaveformSine))
			phase = audio.AdvancePhase(phase, freq, sf.sampleRate)
		}
		return out
	}

	svf := audio.NewSelectableFilter(sf.sampleRate, true)
	svf.SetType(audio.FilterLowpass)
	svf.SetFrequency(freq * 6)
	svf.SetResonance(1.2)

	phaseIncrement := freq / sf.sampleRate
	phase := 0.0
	for i := range out {
		raw := audio.GeneratePolyBLEPSaw(phase, phaseIncrement)
		out[i] = float32(svf.Process(raw))
		phase = audio.AdvancePhase(phase, freq, sf.sampleRate)
	}
	return out
}
