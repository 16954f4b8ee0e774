package mocks

import (
	"context"
	"sync"

	"github.com/example/farmbe-store/internal/infrastructure/store"
)

// MockBackend is a Backend for testing. It keeps real versioned state in a
// MemoryBackend and records every call.
type MockBackend struct {
	*store.MemoryBackend

	mu sync.Mutex

	// For tracking calls in tests
	GetCalls       []string
	CommitCalls    [][]store.Write
	GetErr         error
	CommitErr      error
	CommitCallback func(ctx context.Context, writes []store.Write) error
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		MemoryBackend: store.NewMemoryBackend(),
		GetCalls:      make([]string, 0),
		CommitCalls:   make([][]store.Write, 0),
	}
}

func (m *MockBackend) Get(ctx context.Context, key string) (store.Record, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, key)
	err := m.GetErr
	m.mu.Unlock()

	if err != nil {
		return store.Record{}, err
	}
	return m.MemoryBackend.Get(ctx, key)
}

// Commit records the call, then runs CommitCallback (outside the lock, so it
// may touch the backend itself), then CommitErr, then the real commit.
func (m *MockBackend) Commit(ctx context.Context, writes ...store.Write) error {
	m.mu.Lock()
	recorded := make([]store.Write, len(writes))
	copy(recorded, writes)
	m.CommitCalls = append(m.CommitCalls, recorded)
	callback := m.CommitCallback
	err := m.CommitErr
	m.mu.Unlock()

	if callback != nil {
		if err := callback(ctx, writes); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	return m.MemoryBackend.Commit(ctx, writes...)
}

// Commits returns the number of Commit calls so far.
func (m *MockBackend) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CommitCalls)
}

// Reset clears recorded calls and injected errors
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls = make([]string, 0)
	m.CommitCalls = make([][]store.Write, 0)
	m.GetErr = nil
	m.CommitErr = nil
	m.CommitCallback = nil
}
