package audio

import "sync"

// BufferPool is a sync.Pool-backed port of the reference engine's
// thread-local render-buffer cache: a way to obtain scratch []float32
// buffers on the audio thread without allocating in the steady state.
// Buffers are not zeroed on Get — callers that need a clean scratch buffer
// must clear it themselves.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get returns a buffer with length exactly size, reusing pooled capacity
// when available.
func (p *BufferPool) Get(size int) []float32 {
	if v := p.pool.Get(); v != nil {
		buf := v.([]float32)
		if cap(buf) >= size {
			return buf[:size]
		}
	}
	return make([]float32, size)
}

// Put returns buf to the pool for later reuse.
func (p *BufferPool) Put(buf []float32) {
	p.pool.Put(buf)
}
