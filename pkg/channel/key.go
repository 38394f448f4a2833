package channel

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/opd-ai/polysynth/pkg/audio"
	"github.com/opd-ai/polysynth/pkg/monitor"
	"github.com/opd-ai/polysynth/pkg/realtime"
)

// NoteEventKind discriminates the four events a KeyData can receive.
type NoteEventKind int

const (
	EventOn NoteEventKind = iota
	EventOff
	EventAllOff
	EventAllKilled
)

// KeyNoteEvent is the event set a key dispatches: On(velocity) | Off |
// AllOff | AllKilled.
type KeyNoteEvent struct {
	Kind     NoteEventKind
	Velocity uint8
}

// On builds a note-on event at the given velocity.
func On(velocity uint8) KeyNoteEvent { return KeyNoteEvent{Kind: EventOn, Velocity: velocity} }

// Off builds a note-off event.
func Off() KeyNoteEvent { return KeyNoteEvent{Kind: EventOff} }

// AllOff builds an all-notes-off event.
func AllOff() KeyNoteEvent { return KeyNoteEvent{Kind: EventAllOff} }

// AllKilled builds an all-sound-off event.
func AllKilled() KeyNoteEvent { return KeyNoteEvent{Kind: EventAllKilled} }

// silenceThreshold is the amplitude below which a voice is considered
// inaudible for ranking purposes during amplitude-priority rendering.
const silenceThreshold = 0.001

// KeyData is the thin per-key wrapper: it owns one VoiceBuffer, dispatches
// note events into it via a ChannelSoundfont collaborator, renders all (or
// the highest-priority subset of) its voices each tick, and folds the
// resulting voice count into the shared polyphony counter.
type KeyData struct {
	key               uint8
	buffer            *VoiceBuffer
	lastVoiceCount    int
	counter           *PolyphonyCounter
	maxVoicesPerFrame int
	scratch           *audio.BufferPool
	metrics           *monitor.PerformanceMetrics
}

// NewKeyData constructs a key with an empty voice buffer, ready to receive
// events for MIDI key number key (0-127).
func NewKeyData(key uint8, options ChannelInitOptions, counter *PolyphonyCounter, scratch *audio.BufferPool) *KeyData {
	maxVoicesPerFrame := options.MaxVoicesPerFrame
	if maxVoicesPerFrame < 1 {
		maxVoicesPerFrame = 1
	}
	return &KeyData{
		key:               key,
		buffer:            NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: options.FadeOutKilling}),
		counter:           counter,
		maxVoicesPerFrame: maxVoicesPerFrame,
		scratch:           scratch,
	}
}

// Key returns the MIDI key number this KeyData represents.
func (kd *KeyData) Key() uint8 { return kd.key }

// SetLogger attaches a steal/damper logger to the underlying buffer.
func (kd *KeyData) SetLogger(logger *log.Logger) {
	kd.buffer.Logger = logger
}

// SetMetrics attaches a performance-metrics sink: voice steals recorded by
// the underlying buffer and the voice count/render timing recorded by
// RenderTo. Like SetLogger, this is a control-rate wiring call, never
// consulted from the render_to hot path's decision logic itself.
func (kd *KeyData) SetMetrics(metrics *monitor.PerformanceMetrics) {
	kd.buffer.Metrics = metrics
	kd.metrics = metrics
}

// SendEvent dispatches a note event, spawning and pushing voices through
// channelSF as needed. maxLayers caps the number of active (not killed)
// voices this key keeps, whole groups being stolen to stay under it; nil
// means unbounded.
func (kd *KeyData) SendEvent(e KeyNoteEvent, control *audio.ControlData, channelSF ChannelSoundfont, maxLayers *int) {
	realtime.AssertAudioThread("KeyData.SendEvent")
	switch e.Kind {
	case EventOn:
		voices := channelSF.SpawnVoicesAttack(control, kd.key, e.Velocity)
		kd.buffer.PushVoices(voices, maxLayers)

	case EventOff:
		kd.releaseAndSpawn(control, channelSF, maxLayers)

	case EventAllOff:
		for {
			velocity, ok := kd.buffer.ReleaseNextVoice()
			if !ok {
				break
			}
			voices := channelSF.SpawnVoicesRelease(control, kd.key, velocity)
			kd.buffer.PushVoices(voices, maxLayers)
		}

	case EventAllKilled:
		kd.buffer.KillAllVoices()
	}
}

func (kd *KeyData) releaseAndSpawn(control *audio.ControlData, channelSF ChannelSoundfont, maxLayers *int) {
	velocity, ok := kd.buffer.ReleaseNextVoice()
	if !ok {
		return
	}
	voices := channelSF.SpawnVoicesRelease(control, kd.key, velocity)
	kd.buffer.PushVoices(voices, maxLayers)
}

// ProcessControls forwards the latest control state to every live voice.
func (kd *KeyData) ProcessControls(control *audio.ControlData) {
	kd.buffer.ForEach(func(g *GroupVoice) {
		g.Voice.ProcessControls(control)
	})
}

// rankedVoice is a scratch struct for amplitude-priority sorting.
type rankedVoice struct {
	index     int
	amplitude float32
}

// RenderTo additively writes samples into out. If the key holds no more
// voices than maxVoicesPerFrame, every voice renders; otherwise only the
// highest-amplitude subset (above silenceThreshold) renders, and the rest
// still advance their internal state into a discarded scratch buffer so a
// voice that was merely deprioritized this tick doesn't fall out of sync
// with its own envelope and cursor.
func (kd *KeyData) RenderTo(out []float32) {
	realtime.AssertAudioThread("KeyData.RenderTo")
	var start time.Time
	if kd.metrics != nil {
		start = kd.metrics.StartProcess()
	}
	n := kd.buffer.Len()

	if n <= kd.maxVoicesPerFrame {
		kd.buffer.ForEach(func(g *GroupVoice) {
			g.Voice.RenderTo(out)
		})
	} else {
		ranked := make([]rankedVoice, 0, n)
		for i := 0; i < n; i++ {
			amp := kd.buffer.At(i).Voice.Amplitude()
			if amp > silenceThreshold {
				ranked = append(ranked, rankedVoice{index: i, amplitude: amp})
			}
		}
		sort.SliceStable(ranked, func(a, b int) bool {
			return ranked[a].amplitude > ranked[b].amplitude
		})

		rendered := make([]bool, n)
		limit := kd.maxVoicesPerFrame
		if limit > len(ranked) {
			limit = len(ranked)
		}
		for i := 0; i < limit; i++ {
			idx := ranked[i].index
			kd.buffer.At(idx).Voice.RenderTo(out)
			rendered[idx] = true
		}

		scratch := kd.scratchBuffer(len(out))
		for i := 0; i < n; i++ {
			if rendered[i] {
				continue
			}
			for j := range scratch {
				scratch[j] = 0
			}
			kd.buffer.At(i).Voice.RenderTo(scratch)
		}
		if kd.scratch != nil {
			kd.scratch.Put(scratch)
		}
	}

	kd.buffer.RemoveEndedVoices()
	kd.updateCounter()
	if kd.metrics != nil {
		kd.metrics.EndProcess(start)
		kd.metrics.UpdateVoiceCount(int32(kd.buffer.VoiceCount()))
	}
}

func (kd *KeyData) scratchBuffer(size int) []float32 {
	if kd.scratch == nil {
		return make([]float32, size)
	}
	return kd.scratch.Get(size)
}

// updateCounter computes the voice-count delta since the last render and
// folds it into the shared polyphony counter with relaxed atomics.
func (kd *KeyData) updateCounter() {
	newCount := kd.buffer.VoiceCount()
	delta := newCount - kd.lastVoiceCount
	if delta != 0 {
		kd.counter.Add(delta)
	}
	kd.lastVoiceCount = newCount
}

// SetDamper forwards the damper-pedal state to the underlying buffer.
func (kd *KeyData) SetDamper(held bool) {
	kd.buffer.SetDamper(held)
}

// HasVoices reports whether this key currently holds any voice.
func (kd *KeyData) HasVoices() bool {
	return kd.buffer.HasVoices()
}

// VoiceCount returns the number of voices currently buffered for this key.
func (kd *KeyData) VoiceCount() int {
	return kd.buffer.VoiceCount()
}
