package channel

import "sync/atomic"

// PolyphonyCounter is the single datum legitimately shared across audio
// threads: a process-wide count of live voices, mutated by every KeyData's
// end-of-render counter update. It is a monitoring gauge, not a
// synchronization primitive — Go's atomic operations provide the only
// ordering guarantee this needs (no happens-before relationship is ever
// consumed by a reader).
type PolyphonyCounter struct {
	value atomic.Uint64
}

// NewPolyphonyCounter returns a zeroed counter.
func NewPolyphonyCounter() *PolyphonyCounter {
	return &PolyphonyCounter{}
}

// Add applies a signed delta to the counter. Go has no relaxed-vs-acquire
// distinction on atomic.Uint64 — Add is the idiomatic equivalent of the
// reference engine's relaxed fetch_add/fetch_sub.
func (c *PolyphonyCounter) Add(delta int) {
	c.value.Add(uint64(int64(delta)))
}

// Load reads the current count.
func (c *PolyphonyCounter) Load() uint64 {
	return c.value.Load()
}
