// Package farmstore is the shared inventory and order store. Every role
// reads and mutates the same two collections through it, and every
// committed mutation is announced to local subscribers and to other
// processes sharing the backend.
package farmstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/farmbe-store/internal/domain/inventory"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/domain/product"
	"github.com/example/farmbe-store/internal/infrastructure/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 5

// Broadcaster publishes change events to other processes. Both the Kafka
// producer and the Redis backend satisfy it.
type Broadcaster interface {
	Publish(ctx context.Context, key string, event any) error
}

// OrderDefaults fill in order fields the caller leaves empty.
type OrderDefaults struct {
	Customer    string
	Source      string
	Destination string
}

var DefaultOrderDefaults = OrderDefaults{
	Customer:    "Sai PG Stays",
	Source:      "GreenEarth Estates",
	Destination: "Sai PG Stays",
}

type Store struct {
	backend     store.Backend
	logger      *zap.Logger
	broadcaster Broadcaster
	metrics     *Metrics

	now         func() time.Time
	newOrderID  func() string
	pickImage   product.ImagePicker
	seedInv     []product.Product
	seedOrders  []order.Order
	defaults    OrderDefaults
	strict      bool
	origin      string
	maxAttempts int

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	subsMu  sync.RWMutex
	subs    map[uint64]func(Change)
	nextSub uint64
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Store) { s.broadcaster = b }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithOrderIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newOrderID = gen }
}

func WithImagePicker(pick product.ImagePicker) Option {
	return func(s *Store) { s.pickImage = pick }
}

// WithSeed replaces the dataset Initialize writes into empty collections.
func WithSeed(products []product.Product, orders []order.Order) Option {
	return func(s *Store) {
		s.seedInv = products
		s.seedOrders = orders
	}
}

func WithOrderDefaults(d OrderDefaults) Option {
	return func(s *Store) { s.defaults = d }
}

// WithStrictNotFound makes mutations on unknown ids return domain.ErrNotFound
// instead of silently doing nothing.
func WithStrictNotFound() Option {
	return func(s *Store) { s.strict = true }
}

// WithOrigin sets the id stamped on outgoing changes. Incoming changes with
// the same origin are ignored.
func WithOrigin(origin string) Option {
	return func(s *Store) { s.origin = origin }
}

func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func New(backend store.Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		logger:      zap.NewNop(),
		now:         time.Now,
		newOrderID:  func() string { return order.IDPrefix + uuid.NewString() },
		pickImage:   product.RandomImage,
		seedInv:     product.DefaultInventory(),
		defaults:    DefaultOrderDefaults,
		origin:      uuid.NewString(),
		maxAttempts: defaultMaxAttempts,
		subs:        make(map[uint64]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "farmstore"), zap.String("origin", s.origin))
	return s
}

// Origin returns the id this store stamps on its changes.
func (s *Store) Origin() string {
	return s.origin
}

// Initialize writes the seed dataset into each collection that has never
// been written. Existing data is never touched, so calling it again is a
// no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var writes []store.Write

		invRec, err := s.backend.Get(ctx, store.InventoryKey)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		if !invRec.Exists() {
			value, err := encodeCollection(s.seedInv)
			if err != nil {
				return fmt.Errorf("initialize: encode inventory: %w", err)
			}
			writes = append(writes, store.Write{Key: store.InventoryKey, Value: value})
		}

		ordRec, err := s.backend.Get(ctx, store.OrdersKey)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		if !ordRec.Exists() {
			value, err := encodeCollection(s.seedOrders)
			if err != nil {
				return fmt.Errorf("initialize: encode orders: %w", err)
			}
			writes = append(writes, store.Write{Key: store.OrdersKey, Value: value})
		}

		if len(writes) == 0 {
			return nil
		}

		err = s.backend.Commit(ctx, writes...)
		if errors.Is(err, store.ErrVersionConflict) {
			// Another process seeded concurrently; re-check what is left.
			s.metrics.conflict()
			continue
		}
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		for _, w := range writes {
			s.logger.Info("seeded collection", zap.String("key", w.Key))
		}
		return nil
	}
	return fmt.Errorf("initialize: %w after %d attempts", store.ErrVersionConflict, s.maxAttempts)
}

// state is one consistent read of both collections plus the versions the
// commit must match.
type state struct {
	inventory  inventory.Inventory
	invVersion int64
	orders     []order.Order
	ordVersion int64
}

// load reads both collections. Backend failures are returned; undecodable
// data is logged, counted and read as an empty collection.
func (s *Store) load(ctx context.Context) (state, error) {
	var st state

	invRec, err := s.backend.Get(ctx, store.InventoryKey)
	if err != nil {
		return st, err
	}
	st.invVersion = invRec.Version
	if invRec.Exists() {
		inv, err := decodeInventory(invRec.Value)
		if err != nil {
			s.unreadable(store.InventoryKey, err)
		}
		st.inventory = inv
	}

	ordRec, err := s.backend.Get(ctx, store.OrdersKey)
	if err != nil {
		return st, err
	}
	st.ordVersion = ordRec.Version
	if ordRec.Exists() {
		orders, err := decodeOrders(ordRec.Value)
		if err != nil {
			s.unreadable(store.OrdersKey, err)
		}
		st.orders = orders
	}
	return st, nil
}

func (s *Store) unreadable(key string, err error) {
	s.metrics.unreadable(key)
	s.logger.Warn("persisted collection is unreadable, treating as empty",
		zap.String("key", key), zap.Error(err))
}

// mutation edits st in place and reports which collections it changed.
// Returning no collections means there is nothing to commit.
type mutation func(st *state) (collections []string, ref string, err error)

// mutate runs fn against fresh state and commits the touched collections
// with compare-and-swap, retrying from a fresh read on version conflicts.
// Subscribers are notified after the lock is released so they may call
// back into the store.
func (s *Store) mutate(ctx context.Context, op Op, fn mutation) error {
	change, err := s.commit(ctx, op, fn)
	if err != nil || change == nil {
		return err
	}
	s.publish(ctx, *change)
	return nil
}

func (s *Store) commit(ctx context.Context, op Op, fn mutation) (*Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		st, err := s.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		collections, ref, err := fn(&st)
		if err != nil {
			return nil, err
		}
		if len(collections) == 0 {
			return nil, nil
		}

		writes, err := st.writes(collections)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		err = s.backend.Commit(ctx, writes...)
		if errors.Is(err, store.ErrVersionConflict) {
			s.metrics.conflict()
			s.logger.Debug("version conflict, retrying",
				zap.String("op", string(op)), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.metrics.mutation(op)
		return s.newChange(op, collections, ref), nil
	}
	return nil, fmt.Errorf("%s: %w after %d attempts", op, store.ErrVersionConflict, s.maxAttempts)
}

func (st *state) writes(collections []string) ([]store.Write, error) {
	writes := make([]store.Write, 0, len(collections))
	for _, key := range collections {
		var (
			value    []byte
			err      error
			expected int64
		)
		switch key {
		case store.InventoryKey:
			value, err = encodeCollection(st.inventory)
			expected = st.invVersion
		case store.OrdersKey:
			value, err = encodeCollection(st.orders)
			expected = st.ordVersion
		default:
			return nil, fmt.Errorf("unknown collection %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		writes = append(writes, store.Write{Key: key, Value: value, ExpectedVersion: expected})
	}
	return writes, nil
}
