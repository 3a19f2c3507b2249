package pricing

import (
	"sync"
)

// Hub is a bounded fan-out publisher of price snapshots. Each subscriber
// owns a small buffered channel; a subscriber that falls behind misses
// ticks instead of blocking the publisher. Every snapshot fully replaces
// the previous one, so dropped ticks are harmless.
type Hub struct {
	mu       sync.RWMutex
	subs     map[chan Snapshot]struct{}
	last     Snapshot
	haveLast bool
}

const subscriberBuffer = 4

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Snapshot]struct{})}
}

// Subscribe registers a new subscriber and returns its channel. The most
// recently published snapshot, if any, is queued first so the subscriber
// does not wait a full broadcast tick for its initial reading.
func (h *Hub) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)
	h.mu.Lock()
	if h.haveLast {
		ch <- h.last
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan Snapshot) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish fans the snapshot out to all subscribers without blocking.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = snap
	h.haveLast = true
	for ch := range h.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Count returns the current subscriber count.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
