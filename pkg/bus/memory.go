package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

type subscription struct {
	id      int
	handler Handler
}

// Memory fans events out to in-process subscribers, the same-page analog
// of multiple mounted views. Handlers run synchronously in subscription
// order.
type Memory struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

// NewMemory returns a bus with no subscribers.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(ctx context.Context, event Event) error {
	if !event.Type.IsValid() {
		return fmt.Errorf("invalid event type %q", event.Type)
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.subs))
	for _, sub := range m.subs {
		handlers = append(handlers, sub.handler)
	}
	m.mu.RUnlock()

	var errs error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (m *Memory) Subscribe(handler Handler) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs = append(m.subs, subscription{id: id, handler: handler})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		for i, sub := range m.subs {
			if sub.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
	}
}
