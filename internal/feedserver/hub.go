package feedserver

import (
	"sync"

	"github.com/npratt/beacon/internal/metrics"
)

// DefaultSubscriberBuffer is the per-subscriber queue size.
const DefaultSubscriberBuffer = 64

// Hub fans serialized frames out to every subscriber. Each subscriber has a
// bounded queue; when it is full the oldest frame is dropped to make room, so
// a slow reader sees the latest frames instead of stalling the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	buffer int
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{subs: make(map[chan []byte]struct{}), buffer: buffer}
}

// Subscribe registers a subscriber. The returned function unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(n)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			n := len(h.subs)
			h.mu.Unlock()
			metrics.SetSubscribers(n)
		})
	}
}

// Publish delivers payload to every subscriber and returns how many
// subscribers received it and how many had to drop an older frame.
func (h *Hub) Publish(payload []byte) (delivered, dropped int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- payload:
			delivered++
			continue
		default:
		}
		// Full: drop the oldest and retry once.
		select {
		case <-ch:
			dropped++
		default:
		}
		select {
		case ch <- payload:
			delivered++
		default:
		}
	}
	metrics.ObservePublish(dropped)
	return delivered, dropped
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
