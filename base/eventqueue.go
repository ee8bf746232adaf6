package base

import (
	"sync"

	"github.com/puzpuzpuz/xsync"

	"github.com/hpcops/torque-slack-agent/util"
)

// EventQueue is the single ordered hand-off channel from all producers (replay, then the
// live tailers) to the one dispatcher.
//
// Push never blocks and is safe for concurrent producers; the queue grows without bound,
// limited only by process memory. Pop must be called from a single consumer. Close is
// idempotent and enqueues a stop sentinel behind all previously pushed events; Pop
// returns nil once the sentinel is dequeued.
type EventQueue struct {
	mutex  sync.Mutex
	items  []*Event
	wakeup chan struct{}
	depth  *xsync.Counter
	close  func() bool
}

// NewEventQueue creates an empty EventQueue
func NewEventQueue() *EventQueue {
	queue := &EventQueue{
		items:  make([]*Event, 0, 64),
		wakeup: make(chan struct{}, 1),
		depth:  new(xsync.Counter),
	}
	queue.close = util.NewRunOnce(func() {
		queue.append(nil)
	})
	return queue
}

// Push appends an event to the tail of the queue without blocking
//
// The caller hands off ownership of the event; it must not be modified afterwards.
func (queue *EventQueue) Push(event *Event) {
	if event == nil {
		panic("nil event pushed to EventQueue")
	}
	queue.depth.Inc()
	queue.append(event)
}

// Pop removes and returns the head event, blocking while the queue is empty
//
// Returns nil after Close, once all events pushed before Close have been popped.
func (queue *EventQueue) Pop() *Event {
	for {
		queue.mutex.Lock()
		if len(queue.items) > 0 {
			event := queue.items[0]
			queue.items = queue.items[1:]
			queue.mutex.Unlock()
			if event != nil {
				queue.depth.Dec()
			}
			return event
		}
		queue.mutex.Unlock()
		<-queue.wakeup
	}
}

// Close requests the consumer to stop after draining everything pushed so far
//
// Returns true on the first call and false afterwards; repeated calls have no effect.
func (queue *EventQueue) Close() bool {
	return queue.close()
}

// Depth returns the number of real events currently queued, for metrics
func (queue *EventQueue) Depth() int64 {
	return queue.depth.Value()
}

func (queue *EventQueue) append(event *Event) {
	queue.mutex.Lock()
	queue.items = append(queue.items, event)
	queue.mutex.Unlock()

	select {
	case queue.wakeup <- struct{}{}:
	default:
	}
}
