// Package broadcast provides a replay-latest multicast channel: every new
// subscriber first receives the most recently published value, then every
// later publish in order.
package broadcast

import (
	"sync"
	"sync/atomic"
)

const DefaultMailbox = 16

// Hub fans values out to subscribers. Publish never blocks; a subscriber
// that falls behind loses its oldest undelivered values.
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[*Subscription[T]]struct{}
	latest  atomic.Pointer[T]
	mailbox int
	closed  bool
}

func NewHub[T any](mailbox int) *Hub[T] {
	if mailbox <= 0 {
		mailbox = DefaultMailbox
	}
	return &Hub[T]{
		subs:    make(map[*Subscription[T]]struct{}),
		mailbox: mailbox,
	}
}

// Subscription is one reader of a Hub. C is closed when the subscription
// or the hub is closed.
type Subscription[T any] struct {
	C <-chan T

	ch   chan T
	hub  *Hub[T]
	once sync.Once
}

// Publish retains value as the latest and delivers it to every subscriber.
// Publishing on a closed hub is a no-op.
func (h *Hub[T]) Publish(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	v := value
	h.latest.Store(&v)
	for sub := range h.subs {
		sub.offer(value)
	}
}

// Subscribe registers a new reader. The retained value, if any, is already
// in its mailbox when Subscribe returns.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	ch := make(chan T, h.mailbox)
	sub := &Subscription[T]{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(ch) })
		return sub
	}
	if latest := h.latest.Load(); latest != nil {
		ch <- *latest
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Latest returns the retained value without taking the hub lock.
func (h *Hub[T]) Latest() (T, bool) {
	if latest := h.latest.Load(); latest != nil {
		return *latest, true
	}
	var zero T
	return zero, false
}

func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close completes every subscription. Later subscribers get an already
// closed subscription.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.once.Do(func() { close(sub.ch) })
		delete(h.subs, sub)
	}
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	delete(s.hub.subs, s)
	s.once.Do(func() { close(s.ch) })
}

// offer is called with the hub lock held.
func (s *Subscription[T]) offer(value T) {
	for {
		select {
		case s.ch <- value:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
