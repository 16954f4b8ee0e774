package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/example/farmbe-store/internal/infrastructure/store"
)

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Key   string
	Event any
}

// MockBroadcaster records published change events. When Forward is set each
// event is also JSON-encoded and handed to it, which lets a test wire two
// stores together as if they shared a message bus.
type MockBroadcaster struct {
	mu sync.Mutex

	PublishCalls []PublishCall
	PublishErr   error
	Forward      store.MessageHandler
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{PublishCalls: make([]PublishCall, 0)}
}

func (m *MockBroadcaster) Publish(ctx context.Context, key string, event any) error {
	m.mu.Lock()
	m.PublishCalls = append(m.PublishCalls, PublishCall{Key: key, Event: event})
	err := m.PublishErr
	forward := m.Forward
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if forward == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return forward(ctx, []byte(key), data)
}

// Calls returns a copy of the recorded calls.
func (m *MockBroadcaster) Calls() []PublishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishCall, len(m.PublishCalls))
	copy(out, m.PublishCalls)
	return out
}
