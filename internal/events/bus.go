package events

import (
	"context"
	"sync"
)

// BusEventName names the in-process notification.
const BusEventName = "watchlater:update"

// Bus is an in-process pub/sub for [ListChanged]. Delivery never blocks the publisher:
// a subscriber whose buffer is full misses the update.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan ListChanged
	nextID int
	closed bool
}

// NewBus creates an empty [Bus].
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan ListChanged)}
}

// Subscribe registers a subscriber with the given buffer size. The returned cancel
// function unregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan ListChanged, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan ListChanged, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers event to every subscriber without blocking.
func (b *Bus) Publish(_ context.Context, event ListChanged) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Close unregisters and closes every subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
}
