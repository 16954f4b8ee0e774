package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend is a process-local Backend.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: make(map[string]Record),
	}
}

// Get retrieves a record by key
func (mb *MemoryBackend) Get(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	mb.mu.RLock()
	defer mb.mu.RUnlock()

	rec, ok := mb.records[key]
	if !ok {
		return Record{Key: key}, nil
	}
	return Record{Key: key, Value: cloneBytes(rec.Value), Version: rec.Version}, nil
}

// Commit checks every expected version before applying any write
func (mb *MemoryBackend) Commit(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	for _, w := range writes {
		if current := mb.records[w.Key].Version; current != w.ExpectedVersion {
			return fmt.Errorf("%w: %s is at version %d, expected %d", ErrVersionConflict, w.Key, current, w.ExpectedVersion)
		}
	}
	for _, w := range writes {
		mb.records[w.Key] = Record{Key: w.Key, Value: cloneBytes(w.Value), Version: w.ExpectedVersion + 1}
	}
	return nil
}

// Put overwrites a record unconditionally and bumps its version. It stands in
// for a foreign writer in tests and local tooling.
func (mb *MemoryBackend) Put(key string, value []byte) Record {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	rec := Record{Key: key, Value: cloneBytes(value), Version: mb.records[key].Version + 1}
	mb.records[key] = rec
	return rec
}

// Delete removes a record
func (mb *MemoryBackend) Delete(key string) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	delete(mb.records, key)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
