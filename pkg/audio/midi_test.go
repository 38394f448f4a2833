package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMIDIToNoteOn_decodesChannelKeyVelocity(t *testing.T) {
	ch, key, vel, ok := MIDIToNoteOn([]byte{0x91, 60, 100})
	assert.True(t, ok)
	assert.Equal(t, 1, ch)
	assert.Equal(t, 60, key)
	assert.Equal(t, uint8(100), vel)
}

func TestMIDIToNoteOn_velocityZeroIsNotANoteOn(t *testing.T) {
	_, _, _, ok := MIDIToNoteOn([]byte{0x90, 60, 0})
	assert.False(t, ok)
}

func TestMIDIToNoteOn_wrongStatusRejected(t *testing.T) {
	_, _, _, ok := MIDIToNoteOn([]byte{0x80, 60, 100})
	assert.False(t, ok)
}

func TestMIDIToNoteOff_recognizesExplicitNoteOff(t *testing.T) {
	ch, key, ok := MIDIToNoteOff([]byte{0x82, 64, 0})
	assert.True(t, ok)
	assert.Equal(t, 2, ch)
	assert.Equal(t, 64, key)
}

func TestMIDIToNoteOff_recognizesNoteOnVelocityZeroAsNoteOff(t *testing.T) {
	ch, key, ok := MIDIToNoteOff([]byte{0x90, 64, 0})
	assert.True(t, ok)
	assert.Equal(t, 0, ch)
	assert.Equal(t, 64, key)
}

func TestNoteToMIDI_clampsToSevenBitRange(t *testing.T) {
	assert.Equal(t, uint8(0), NoteToMIDI(-1))
	assert.Equal(t, uint8(127), NoteToMIDI(2))
	assert.Equal(t, uint8(64), NoteToMIDI(0.5))
}

func TestMIDIPitchBendToParamMod_centerIsZero(t *testing.T) {
	// 0x2000 = 8192, LSB then MSB (7 bits each).
	v := MIDIPitchBendToParamMod([]byte{MIDIPitchBend, 0x00, 0x40})
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestMIDIPitchBendToParamMod_extremesMapToUnitRange(t *testing.T) {
	min := MIDIPitchBendToParamMod([]byte{MIDIPitchBend, 0x00, 0x00})
	max := MIDIPitchBendToParamMod([]byte{MIDIPitchBend, 0x7F, 0x7F})
	assert.InDelta(t, -1.0, min, 1e-3)
	assert.InDelta(t, 1.0, max, 1e-3)
}
