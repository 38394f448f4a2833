// Package channel implements the per-key voice container: grouping,
// release, damper-pedal hold, priority-based voice stealing, and
// end-of-life reclamation, plus the key-level dispatcher that renders a
// key's voices and folds their count into the shared polyphony counter.
package channel

import "github.com/opd-ai/polysynth/pkg/audio"

// GroupVoice pairs a voice with the group id of the event that spawned it.
// The group id ties together voices spawned by a single attack or release
// (e.g. a primary tone plus a percussive transient) so they release
// together and are stolen together.
type GroupVoice struct {
	ID    uint64
	Voice audio.Voice
}
