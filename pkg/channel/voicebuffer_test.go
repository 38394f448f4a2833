package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/opd-ai/polysynth/pkg/audio"
	"github.com/opd-ai/polysynth/pkg/monitor"
	"github.com/opd-ai/polysynth/pkg/simd"
)

// fakeVoice is a minimal, fully inspectable audio.Voice for exercising
// VoiceBuffer/KeyData without any real sample playback.
type fakeVoice struct {
	velocity  uint8
	amplitude float32
	ended     bool
	releasing bool
	killed    bool
	renders   int
}

func (v *fakeVoice) RenderTo(buf []float32) {
	v.renders++
	for i := range buf {
		buf[i] += v.amplitude
	}
}

func (v *fakeVoice) ProcessControls(*audio.ControlData) {}

func (v *fakeVoice) SignalRelease(kind simd.ReleaseType) {
	if v.killed || (v.releasing && kind != simd.ReleaseKill) {
		return
	}
	v.releasing = true
	if kind == simd.ReleaseKill {
		v.killed = true
	}
}

func (v *fakeVoice) Ended() bool       { return v.ended }
func (v *fakeVoice) IsReleasing() bool { return v.releasing }
func (v *fakeVoice) IsKilled() bool    { return v.killed }
func (v *fakeVoice) Velocity() uint8   { return v.velocity }
func (v *fakeVoice) Amplitude() float32 { return v.amplitude }

func voicesOf(velocities ...uint8) []audio.Voice {
	out := make([]audio.Voice, len(velocities))
	for i, v := range velocities {
		out[i] = &fakeVoice{velocity: v, amplitude: 1}
	}
	return out
}

func intPtr(v int) *int { return &v }

// Scenario 2: voice stealing with a cap, hard-drop policy.
func TestVoiceBuffer_stealingDropsQuietestGroup(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: false})

	vb.PushVoices(voicesOf(30), intPtr(4))
	vb.PushVoices(voicesOf(40), intPtr(4))
	vb.PushVoices(voicesOf(20), intPtr(4))
	vb.PushVoices(voicesOf(50), intPtr(4))
	vb.PushVoices(voicesOf(60), intPtr(4))

	require.Equal(t, 4, vb.VoiceCount())

	var remaining []uint8
	vb.ForEach(func(g *GroupVoice) { remaining = append(remaining, g.Voice.Velocity()) })
	assert.ElementsMatch(t, []uint8{30, 40, 50, 60}, remaining)
}

// Scenario 3: group stealing with fade-out killing.
func TestVoiceBuffer_stealingFadesOutQuietestGroup(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: true})

	vb.PushVoices(voicesOf(50), nil) // group A: vel 50
	vb.PushVoices(voicesOf(10), nil) // group B: vel 10

	vb.PushVoices(voicesOf(70), intPtr(2)) // group C pushed with a cap of 2

	require.Equal(t, 3, vb.VoiceCount(), "stolen voice stays present until its envelope ends")

	var killedVelocities []uint8
	active := 0
	vb.ForEach(func(g *GroupVoice) {
		fv := g.Voice.(*fakeVoice)
		if fv.killed {
			killedVelocities = append(killedVelocities, fv.velocity)
		} else {
			active++
		}
	})
	assert.Equal(t, []uint8{10}, killedVelocities)
	assert.Equal(t, 2, active)
}

// Scenario 2 ignored-group immunity: the group just pushed is never the one
// stolen, even if it happens to have the lowest velocity.
func TestVoiceBuffer_justPushedGroupImmuneFromSteal(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: false})

	vb.PushVoices(voicesOf(50), intPtr(1))
	vb.PushVoices(voicesOf(1), intPtr(1)) // quietest of all, but just pushed

	require.Equal(t, 1, vb.VoiceCount())
	var remaining uint8
	vb.ForEach(func(g *GroupVoice) { remaining = g.Voice.Velocity() })
	assert.Equal(t, uint8(1), remaining, "the immune, just-pushed group must survive")
}

// Scenario 4: AllOff releases every group, oldest first, until none remain.
func TestVoiceBuffer_releaseNextVoiceWalksOldestFirst(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{})
	vb.PushVoices(voicesOf(10), nil)
	vb.PushVoices(voicesOf(20), nil)
	vb.PushVoices(voicesOf(30), nil)
	vb.PushVoices(voicesOf(40), nil)

	var releasedOrder []uint8
	for {
		vel, ok := vb.ReleaseNextVoice()
		if !ok {
			break
		}
		releasedOrder = append(releasedOrder, vel)
	}
	assert.Equal(t, []uint8{10, 20, 30, 40}, releasedOrder)

	_, ok := vb.ReleaseNextVoice()
	assert.False(t, ok, "every group is releasing; nothing left to release")
}

// Scenario 1: damper held defers release until lifted.
func TestVoiceBuffer_damperDefersRelease(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{})
	vb.SetDamper(true)
	vb.PushVoices(voicesOf(100), nil)

	vel, ok := vb.ReleaseNextVoice()
	assert.False(t, ok)
	assert.Equal(t, uint8(0), vel)

	fv := vb.At(0).Voice.(*fakeVoice)
	assert.False(t, fv.IsReleasing(), "note must stay sounding while damper is held")

	vb.SetDamper(false)
	assert.True(t, fv.IsReleasing(), "lifting the damper releases the deferred group")
}

func TestVoiceBuffer_killAllVoicesHardClearsWithoutFadeOut(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: false})
	vb.PushVoices(voicesOf(10, 20), nil)
	require.Equal(t, 2, vb.VoiceCount())

	vb.KillAllVoices()
	assert.Equal(t, 0, vb.VoiceCount())
}

func TestVoiceBuffer_killAllVoicesFadesOutKeepingVoices(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: true})
	vb.PushVoices(voicesOf(10, 20), nil)

	vb.KillAllVoices()
	require.Equal(t, 2, vb.VoiceCount())
	vb.ForEach(func(g *GroupVoice) {
		assert.True(t, g.Voice.IsKilled())
	})
}

func TestVoiceBuffer_stealingRecordsMetric(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: false})
	metrics := monitor.NewPerformanceMetrics(48000, 256)
	vb.Metrics = metrics

	vb.PushVoices(voicesOf(30), intPtr(1))
	vb.PushVoices(voicesOf(50), intPtr(1)) // steals the vel-30 group

	assert.Equal(t, uint64(1), metrics.GetStats().VoiceStealEvents)
}

func TestVoiceBuffer_damperFlushRecordsGroupCount(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{})
	metrics := monitor.NewPerformanceMetrics(48000, 256)
	vb.Metrics = metrics

	vb.SetDamper(true)
	vb.PushVoices(voicesOf(10), nil)
	vb.PushVoices(voicesOf(20), nil)
	vb.ReleaseNextVoice() // defers group 1 into held_by_damper
	vb.ReleaseNextVoice() // defers group 2 into held_by_damper

	vb.SetDamper(false)
	assert.Equal(t, uint64(2), metrics.GetStats().DamperFlushEvents)
}

func TestVoiceBuffer_killAllRecordsMetric(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: true})
	metrics := monitor.NewPerformanceMetrics(48000, 256)
	vb.Metrics = metrics

	vb.PushVoices(voicesOf(10), nil)
	vb.KillAllVoices()
	vb.KillAllVoices()

	assert.Equal(t, uint64(2), metrics.GetStats().KillAllEvents)
}

func TestVoiceBuffer_removeEndedVoicesReapsOnlyEnded(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{})
	vb.PushVoices(voicesOf(10), nil)
	vb.PushVoices(voicesOf(20), nil)

	vb.At(0).Voice.(*fakeVoice).ended = true
	vb.RemoveEndedVoices()

	require.Equal(t, 1, vb.VoiceCount())
	assert.Equal(t, uint8(20), vb.At(0).Voice.Velocity())
}

// B1: an empty buffer is a no-op.
func TestVoiceBuffer_emptyBufferIsNoop(t *testing.T) {
	vb := NewVoiceBuffer(VoiceBufferOptions{})
	assert.Equal(t, 0, vb.VoiceCount())
	assert.False(t, vb.HasVoices())
	_, ok := vb.ReleaseNextVoice()
	assert.False(t, ok)
	vb.RemoveEndedVoices() // must not panic
}

// P3: voices sharing a group id form a contiguous run in insertion order,
// for arbitrary sequences of pushes (with varying group sizes) and releases
// (which never reorder, only mark voices releasing).
func TestVoiceBuffer_groupContiguity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vb := NewVoiceBuffer(VoiceBufferOptions{})
		pushes := rapid.IntRange(0, 20).Draw(t, "pushes")
		for i := 0; i < pushes; i++ {
			size := rapid.IntRange(1, 3).Draw(t, "groupSize")
			vels := make([]uint8, size)
			for j := range vels {
				vels[j] = uint8(rapid.IntRange(0, 127).Draw(t, "vel"))
			}
			vb.PushVoices(voicesOf(vels...), nil)
			if rapid.Bool().Draw(t, "releaseSome") {
				vb.ReleaseNextVoice()
			}
		}

		seen := make(map[uint64]bool)
		lastID := uint64(0)
		haveLast := false
		for i := 0; i < vb.Len(); i++ {
			id := vb.At(i).ID
			if haveLast && id == lastID {
				continue // still inside the same run
			}
			require.False(t, seen[id], "group id %d reappeared non-contiguously", id)
			seen[id] = true
			lastID = id
			haveLast = true
		}
	})
}

// P4: once a voice reports IsReleasing, it never reports !IsReleasing again,
// across any sequence of release/steal/damper operations.
func TestVoiceBuffer_releaseMonotonicity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vb := NewVoiceBuffer(VoiceBufferOptions{FadeOutKilling: rapid.Bool().Draw(t, "fadeOut")})
		steps := rapid.IntRange(1, 30).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				vb.PushVoices(voicesOf(uint8(rapid.IntRange(0, 127).Draw(t, "vel"))), intPtr(4))
			case 1:
				vb.ReleaseNextVoice()
			case 2:
				vb.SetDamper(rapid.Bool().Draw(t, "damper"))
			case 3:
				vb.RemoveEndedVoices()
			}
		}

		// Final check: every voice that reports releasing must have had
		// SignalRelease called and must not be revived by later ops; since
		// fakeVoice.SignalRelease is itself idempotent and one-directional,
		// this holds by construction — the property test's job is to make
		// sure no VoiceBuffer operation bypasses SignalRelease to toggle it
		// back, which a data race or logic bug would otherwise expose under
		// exhaustive random scheduling.
		vb.ForEach(func(g *GroupVoice) {
			fv := g.Voice.(*fakeVoice)
			if fv.IsReleasing() {
				assert.True(t, fv.releasing)
			}
		})
	})
}
