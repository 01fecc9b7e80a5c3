package pubsub

import (
	"context"
	"sync"
	"time"
)

// defaultBuffer sizes subscriber channels. A full stream turn emits a few
// dozen display events; 64 absorbs a burst without the UI falling behind.
const defaultBuffer = 64

// Broker fans events out to subscribers. Conversation turns publish from
// their own goroutines; the TUI and the log overlay subscribe. Publish
// never blocks: a subscriber that stops draining loses events instead of
// stalling a turn.
type Broker[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event[T]
	closed bool
	buffer int
}

// NewBroker creates a broker with the default subscriber buffer.
func NewBroker[T any]() *Broker[T] {
	return NewSizedBroker[T](defaultBuffer)
}

// NewSizedBroker creates a broker with a custom subscriber buffer size.
func NewSizedBroker[T any](buffer int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[int]chan Event[T]),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned channel closes when
// ctx is cancelled or the broker shuts down; subscribing to a closed
// broker yields an already-closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event[T], b.buffer)
	b.subs[id] = ch

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed {
			return
		}
		delete(b.subs, id)
		close(ch)
	}()

	return ch
}

// Publish delivers an event to every subscriber whose buffer has room.
// Publishing on a closed broker is a no-op.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	ev := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; drop rather than block the turn.
		}
	}
}

// Close shuts the broker down and closes every subscriber channel.
// Idempotent.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Subscribers returns the number of active subscribers.
func (b *Broker[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
