package store

import (
	"context"
	"errors"
)

// Record keys of the two shared collections.
const (
	InventoryKey = "farmbe_inventory"
	OrdersKey    = "farmbe_orders"
)

// ErrVersionConflict is returned by Commit when a record changed after it was read.
var ErrVersionConflict = errors.New("version conflict")

// Record is one stored collection. Version 0 means the key has never been written.
type Record struct {
	Key     string
	Value   []byte
	Version int64
}

// Exists reports whether the record has ever been written.
func (r Record) Exists() bool {
	return r.Version > 0
}

// Write replaces the value of Key provided its current version still equals
// ExpectedVersion. On success the stored version becomes ExpectedVersion+1.
type Write struct {
	Key             string
	Value           []byte
	ExpectedVersion int64
}

// Backend is a versioned key/value medium shared by every store instance.
type Backend interface {
	// Get returns the record for key, or a zero-version record if absent.
	Get(ctx context.Context, key string) (Record, error)

	// Commit applies all writes or none of them. A version mismatch on any
	// write yields ErrVersionConflict.
	Commit(ctx context.Context, writes ...Write) error
}

// MessageHandler receives change events from a pub/sub transport.
type MessageHandler func(ctx context.Context, key, value []byte) error
