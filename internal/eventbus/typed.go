package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the subscriber channel capacity used when none is given.
const DefaultBuffer = 16

type subscriber[T any] struct {
	ch     chan T
	filter func(T) bool
}

// TypedBus fans events of type T out to subscribers. Publishing never blocks:
// an event that does not fit in a subscriber's buffer is dropped and counted.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []subscriber[T]
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewTyped creates a bus whose subscriber channels hold buffer events.
// A buffer <= 0 selects DefaultBuffer.
func NewTyped[T any](buffer int) *TypedBus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &TypedBus[T]{buffer: buffer}
}

// Publish delivers e to every subscriber whose filter accepts it.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (b *TypedBus[T]) Dropped() uint64 { return b.dropped.Load() }

// Subscribe registers a subscriber receiving every event.
func (b *TypedBus[T]) Subscribe() <-chan T { return b.SubscribeFunc(nil) }

// SubscribeFunc registers a subscriber receiving only the events accepted by
// filter. A nil filter accepts everything.
func (b *TypedBus[T]) SubscribeFunc(filter func(T) bool) <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, subscriber[T]{ch: ch, filter: filter})
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close closes the bus and all subscriber channels. It is idempotent.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
