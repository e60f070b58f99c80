package events

import (
	"context"
	"sync"
)

// DefaultQueueSize is the default channel buffer size of a Queue.
const DefaultQueueSize = 256

// Queue is the single logical event queue of the engine. Unlike a fan-out
// router it never drops: Emit blocks until the consumer makes room, the
// caller's context ends, or the queue is closed. Events from one producer
// goroutine are delivered in the order they were emitted.
type Queue struct {
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue with the given buffer size.
// If size is 0 or negative, DefaultQueueSize is used.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
}

// Emit posts an event. It returns false if the event was not delivered
// because ctx ended or the queue is closed.
func (q *Queue) Emit(ctx context.Context, event Event) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.ch <- event:
		return true
	case <-q.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Events returns the receive side of the queue. The channel is never closed;
// consumers select on Done to observe shutdown.
func (q *Queue) Events() <-chan Event {
	return q.ch
}

// Done is closed when the queue is closed.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Next blocks for the next event. ok is false once the queue is closed or ctx ends.
func (q *Queue) Next(ctx context.Context) (event Event, ok bool) {
	select {
	case event = <-q.ch:
		return event, true
	case <-q.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Close stops the queue. Blocked and subsequent Emit calls return false.
// Close is safe to call multiple times.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
