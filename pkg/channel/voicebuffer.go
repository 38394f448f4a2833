package channel

import (
	"github.com/charmbracelet/log"

	"github.com/opd-ai/polysynth/pkg/audio"
	"github.com/opd-ai/polysynth/pkg/monitor"
	"github.com/opd-ai/polysynth/pkg/simd"
)

// VoiceBufferOptions configures the stealing policy a VoiceBuffer applies
// when pushed voices exceed a push's max-voices budget.
type VoiceBufferOptions struct {
	// FadeOutKilling, when true, steals a voice by forcing an accelerated
	// Kill release instead of dropping it from the buffer immediately. The
	// stolen voice remains present (and counted) until its envelope
	// finishes and it is reaped by RemoveEndedVoices.
	FadeOutKilling bool
}

// VoiceBuffer owns an ordered sequence of grouped voices for one key,
// insertion order preserved within a group, plus the damper-hold state
// that defers release of notes played while the pedal is down.
type VoiceBuffer struct {
	options      VoiceBufferOptions
	idCounter    uint64
	groups       []GroupVoice
	damperHeld   bool
	heldByDamper map[uint64]struct{}

	// Logger, when non-nil, records voice-steal and damper-release
	// decisions. Never consulted on the render_to hot path — only from
	// push/release/damper/kill, which are control-rate operations.
	Logger *log.Logger

	// Metrics, when non-nil, is tallied on every steal — the same
	// control-rate path as Logger, never read from render_to.
	Metrics *monitor.PerformanceMetrics
}

// NewVoiceBuffer creates an empty buffer with the given stealing policy.
func NewVoiceBuffer(options VoiceBufferOptions) *VoiceBuffer {
	return &VoiceBuffer{
		options:      options,
		heldByDamper: make(map[uint64]struct{}),
	}
}

// getID returns a fresh, strictly increasing group id.
func (vb *VoiceBuffer) getID() uint64 {
	vb.idCounter++
	return vb.idCounter
}

// activeCount is the count pop_quietest_voice_group trims against: every
// voice when not fade-out killing, or only the not-yet-killed ones when it
// is (a killed voice is already committed to silence and doesn't count
// against the budget it's vacating).
func (vb *VoiceBuffer) activeCount() int {
	if !vb.options.FadeOutKilling {
		return len(vb.groups)
	}
	n := 0
	for _, g := range vb.groups {
		if !g.Voice.IsKilled() {
			n++
		}
	}
	return n
}

// PushVoices assigns a fresh group id to voices, appends them to the tail,
// and — if maxVoices is non-nil — steals existing groups until the active
// count is back within budget. The just-pushed group is immune from being
// stolen during this trim. Returns the new group's id.
func (vb *VoiceBuffer) PushVoices(voices []audio.Voice, maxVoices *int) uint64 {
	id := vb.getID()
	for _, v := range voices {
		vb.groups = append(vb.groups, GroupVoice{ID: id, Voice: v})
	}

	if maxVoices != nil {
		for vb.activeCount() > *maxVoices {
			if !vb.popQuietestVoiceGroup(id) {
				break
			}
		}
	}

	return id
}

// popQuietestVoiceGroup selects the lowest-velocity group — excluding
// ignoredID and any already-killed voice — breaking ties by earliest
// occurrence, and either kills or hard-drops it per FadeOutKilling. Returns
// false if no eligible group exists.
func (vb *VoiceBuffer) popQuietestVoiceGroup(ignoredID uint64) bool {
	seen := make(map[uint64]bool)
	bestID := uint64(0)
	bestVel := uint8(255)
	found := false

	for _, g := range vb.groups {
		if g.ID == ignoredID || g.Voice.IsKilled() || seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		vel := g.Voice.Velocity()
		if !found || vel < bestVel {
			found = true
			bestID = g.ID
			bestVel = vel
			if vel == 0 {
				break // can't go lower than silence
			}
		}
	}

	if !found {
		return false
	}

	if vb.Logger != nil {
		gainDb := audio.LinearToDbFloat32(float32(bestVel) / 127.0)
		vb.Logger.Debug("voice stolen", "group", bestID, "velocity", bestVel, "gainDb", gainDb, "fadeOutKilling", vb.options.FadeOutKilling)
	}
	if vb.Metrics != nil {
		vb.Metrics.RecordVoiceSteal()
	}

	if vb.options.FadeOutKilling {
		for _, g := range vb.groups {
			if g.ID == bestID {
				g.Voice.SignalRelease(simd.ReleaseKill)
			}
		}
	} else {
		kept := vb.groups[:0]
		for _, g := range vb.groups {
			if g.ID != bestID {
				kept = append(kept, g)
			}
		}
		vb.groups = kept
	}

	delete(vb.heldByDamper, bestID)
	return true
}

// ReleaseNextVoice implements the two release modes. When the damper is
// held, it marks the first eligible group as held (deferring its release)
// and returns (0, false). Otherwise it releases the first unreleased
// group's contiguous run of voices and returns its velocity.
func (vb *VoiceBuffer) ReleaseNextVoice() (uint8, bool) {
	if vb.damperHeld {
		for _, g := range vb.groups {
			if g.Voice.IsReleasing() || g.Voice.IsKilled() {
				continue
			}
			if _, held := vb.heldByDamper[g.ID]; held {
				continue
			}
			vb.heldByDamper[g.ID] = struct{}{}
			return 0, false
		}
		return 0, false
	}

	idx := -1
	for i, g := range vb.groups {
		if !g.Voice.IsReleasing() && !g.Voice.IsKilled() {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, false
	}

	targetID := vb.groups[idx].ID
	velocity := vb.groups[idx].Voice.Velocity()
	for i := idx; i < len(vb.groups) && vb.groups[i].ID == targetID; i++ {
		vb.groups[i].Voice.SignalRelease(simd.ReleaseStandard)
	}
	return velocity, true
}

// KillAllVoices ends every voice immediately: a Kill fade if
// FadeOutKilling is enabled, otherwise a hard clear. The id counter resets
// only on the hard-clear path, since the buffer is empty and no dangling
// group ids remain to collide with; a fade-out clear may still have
// draining ids and must not reuse them.
func (vb *VoiceBuffer) KillAllVoices() {
	if vb.options.FadeOutKilling {
		for _, g := range vb.groups {
			g.Voice.SignalRelease(simd.ReleaseKill)
		}
	} else {
		vb.groups = nil
		vb.idCounter = 0
	}
	vb.heldByDamper = make(map[uint64]struct{})

	if vb.Metrics != nil {
		vb.Metrics.RecordKillAll()
	}
}

// SetDamper updates the damper-held state. On a true-to-false transition,
// every group deferred by the pedal is released and the deferred set is
// cleared.
func (vb *VoiceBuffer) SetDamper(held bool) {
	if vb.damperHeld && !held {
		flushed := len(vb.heldByDamper)
		if vb.Logger != nil && flushed > 0 {
			vb.Logger.Debug("damper released, flushing held groups", "count", flushed)
		}
		for id := range vb.heldByDamper {
			for _, g := range vb.groups {
				if g.ID == id {
					g.Voice.SignalRelease(simd.ReleaseStandard)
				}
			}
		}
		vb.heldByDamper = make(map[uint64]struct{})
		if vb.Metrics != nil {
			vb.Metrics.RecordDamperFlush(flushed)
		}
	}
	vb.damperHeld = held
}

// RemoveEndedVoices drops every voice whose generator reports Ended,
// preserving insertion order, and removes their ids from the damper-held
// set so a group that ended while pedal-held can't wrongly be treated as
// still deferrable.
func (vb *VoiceBuffer) RemoveEndedVoices() {
	ended := make(map[uint64]bool)
	kept := vb.groups[:0]
	for _, g := range vb.groups {
		if g.Voice.Ended() {
			ended[g.ID] = true
			continue
		}
		kept = append(kept, g)
	}
	vb.groups = kept

	for id := range ended {
		delete(vb.heldByDamper, id)
	}
}

// VoiceCount returns the number of voices currently in the buffer,
// released or not.
func (vb *VoiceBuffer) VoiceCount() int {
	return len(vb.groups)
}

// HasVoices reports whether the buffer holds any voice at all.
func (vb *VoiceBuffer) HasVoices() bool {
	return len(vb.groups) > 0
}

// Len is an alias for VoiceCount, read in indexing contexts.
func (vb *VoiceBuffer) Len() int {
	return len(vb.groups)
}

// At returns the group at insertion-order index i.
func (vb *VoiceBuffer) At(i int) *GroupVoice {
	return &vb.groups[i]
}

// ForEach visits every voice in insertion order.
func (vb *VoiceBuffer) ForEach(fn func(*GroupVoice)) {
	for i := range vb.groups {
		fn(&vb.groups[i])
	}
}
