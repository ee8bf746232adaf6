package dirtail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailBuffer(t *testing.T) {
	buffer := NewTailBuffer(0, nil)

	assert.Nil(t, buffer.Feed([]byte("partial")))
	assert.Equal(t, 7, buffer.PendingSize())

	lines := buffer.Feed([]byte(" line\nsecond\nthird frag"))
	assert.Equal(t, []string{"partial line", "second"}, lines)
	assert.Equal(t, len("third frag"), buffer.PendingSize())

	lines = buffer.Feed([]byte("ment\n"))
	assert.Equal(t, []string{"third fragment"}, lines)
	assert.Equal(t, 0, buffer.PendingSize())
}

func TestTailBufferChunkBoundaries(t *testing.T) {
	// the same content must yield the same lines regardless of how reads are chunked
	content := "alpha\nbeta\ngamma\n"
	for chunkSize := 1; chunkSize <= len(content); chunkSize++ {
		buffer := NewTailBuffer(0, nil)
		collected := []string{}
		for start := 0; start < len(content); start += chunkSize {
			end := start + chunkSize
			if end > len(content) {
				end = len(content)
			}
			collected = append(collected, buffer.Feed([]byte(content[start:end]))...)
		}
		assert.Equal(t, []string{"alpha", "beta", "gamma"}, collected, "chunk size %d", chunkSize)
		assert.Equal(t, 0, buffer.PendingSize())
	}
}

func TestTailBufferReset(t *testing.T) {
	buffer := NewTailBuffer(0, nil)
	assert.Nil(t, buffer.Feed([]byte("stale fragment")))

	buffer.Reset()
	assert.Equal(t, 0, buffer.PendingSize())

	lines := buffer.Feed([]byte("fresh\n"))
	assert.Equal(t, []string{"fresh"}, lines)
}

func TestTailBufferOversizedFragment(t *testing.T) {
	dropped := 0
	buffer := NewTailBuffer(8, func(droppedBytes int) {
		dropped += droppedBytes
	})

	// grows past the limit without a terminator: discarded, then skipping until '\n'
	assert.Nil(t, buffer.Feed([]byte("0123456789")))
	assert.Equal(t, 0, buffer.PendingSize())
	assert.Equal(t, 10, dropped)

	assert.Nil(t, buffer.Feed([]byte("more junk")))
	assert.Equal(t, 19, dropped)

	lines := buffer.Feed([]byte("tail\nok\n"))
	assert.Equal(t, []string{"ok"}, lines)
	assert.Equal(t, 24, dropped)
}
