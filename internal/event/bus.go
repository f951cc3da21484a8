package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 64

// InMemoryBus fans events out to subscribers. The latest event of each retained
// type is kept and delivered first to new subscribers, so a subscriber always
// observes the current authentication status before any change.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	latest      map[Type]Event
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{
		subscribers: make(map[string]chan Event),
		latest:      make(map[Type]Event),
	}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if retained[e.Type] {
		b.latest[e.Type] = e
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
}

func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	for _, e := range b.latest {
		ch <- e
	}
	b.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if ch, exists := b.subscribers[id]; exists {
				close(ch)
				delete(b.subscribers, id)
			}
		})
	}

	return ch, unsubscribe
}

// Latest returns the most recent retained event of type t.
func (b *InMemoryBus) Latest(t Type) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.latest[t]
	return e, ok
}
