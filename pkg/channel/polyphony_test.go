package channel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolyphonyCounter_addAndSubtract(t *testing.T) {
	c := NewPolyphonyCounter()
	assert.Equal(t, uint64(0), c.Load())

	c.Add(5)
	assert.Equal(t, uint64(5), c.Load())

	c.Add(-3)
	assert.Equal(t, uint64(2), c.Load())
}

// The counter is concurrency-safe: many goroutines adding concurrently
// must net out exactly, regardless of interleaving.
func TestPolyphonyCounter_concurrentAddsNetCorrectly(t *testing.T) {
	c := NewPolyphonyCounter()
	var wg sync.WaitGroup
	const goroutines = 50
	const perGoroutine = 200

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(goroutines*perGoroutine), c.Load())
}
