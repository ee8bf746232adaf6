package base

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventQueueOrdering(t *testing.T) {
	queue := NewEventQueue()
	for i := 0; i < 10; i++ {
		queue.Push(&Event{Message: fmt.Sprintf("m%d", i)})
	}
	assert.Equal(t, int64(10), queue.Depth())

	for i := 0; i < 10; i++ {
		event := queue.Pop()
		if assert.NotNil(t, event) {
			assert.Equal(t, fmt.Sprintf("m%d", i), event.Message)
		}
	}
	assert.Equal(t, int64(0), queue.Depth())
}

func TestEventQueueClose(t *testing.T) {
	queue := NewEventQueue()
	queue.Push(&Event{Message: "before close"})

	assert.True(t, queue.Close())
	assert.False(t, queue.Close())

	// everything pushed before Close is still drained ahead of the sentinel
	event := queue.Pop()
	if assert.NotNil(t, event) {
		assert.Equal(t, "before close", event.Message)
	}
	assert.Nil(t, queue.Pop())
}

func TestEventQueueConcurrentProducers(t *testing.T) {
	queue := NewEventQueue()
	numProducers := 8
	numEventsEach := 200

	wg := sync.WaitGroup{}
	for p := 0; p < numProducers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < numEventsEach; i++ {
				queue.Push(&Event{Time: time.Now(), Message: fmt.Sprintf("p%d-%d", p, i)})
			}
		}(p)
	}
	go func() {
		wg.Wait()
		queue.Close()
	}()

	count := 0
	for {
		event := queue.Pop()
		if event == nil {
			break
		}
		count++
	}
	assert.Equal(t, numProducers*numEventsEach, count)
	assert.Equal(t, int64(0), queue.Depth())
}

func TestEventQueueRejectsNil(t *testing.T) {
	queue := NewEventQueue()
	assert.Panics(t, func() {
		queue.Push(nil)
	})
}
