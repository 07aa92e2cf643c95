package bus

import (
	"context"
	"sync"
	"time"
)

// MemoryBus fans events out to in-process subscribers over buffered channels.
// A full subscriber buffer drops the event rather than blocking the publisher.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

const subscriberBuffer = 16

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]chan Event)}
}

func (b *MemoryBus) Publish(_ context.Context, topic, name string, payload map[string]any) error {
	ev := Event{Topic: topic, Name: name, Payload: payload, At: time.Now().UTC()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan Event)
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel, nil
}
