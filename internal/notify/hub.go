// Package notify fans events out to subscribers without ever blocking the
// publisher.
//
// Each subscriber owns a buffered channel. Publish does a non-blocking send
// per subscriber and counts the events a full subscriber missed. Closing a
// Subscription removes it from the hub and closes its channel.
package notify

import (
	"sync"
	"sync/atomic"
)

const DefaultBuffer = 16

// Hub broadcasts values of type T.
type Hub[T any] struct {
	mu     sync.RWMutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// Subscription is a registration on a Hub. Receive from C; call Close when
// done.
type Subscription[T any] struct {
	C <-chan T

	ch      chan T
	hub     *Hub[T]
	once    sync.Once
	dropped atomic.Uint64
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Subscribe registers a subscriber with the given channel capacity. A
// buffer below one uses DefaultBuffer. Subscribing to a closed hub returns
// a subscription whose channel is already closed.
func (h *Hub[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	ch := make(chan T, buffer)
	s := &Subscription[T]{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.once.Do(func() { close(ch) })
		return s
	}
	h.subs[s] = struct{}{}
	return s
}

// Publish delivers v to every subscriber with room in its buffer and
// returns how many subscribers missed it.
func (h *Hub[T]) Publish(v T) (dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- v:
		default:
			s.dropped.Add(1)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Later Publish calls are no-ops.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
}

// Close unregisters the subscription and closes C. Safe to call more than
// once and concurrently with Publish.
func (s *Subscription[T]) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	delete(s.hub.subs, s)
	s.once.Do(func() { close(s.ch) })
}

// Dropped returns how many events this subscriber missed because its
// buffer was full.
func (s *Subscription[T]) Dropped() uint64 { return s.dropped.Load() }
