package farmstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Op names the mutation behind a change.
type Op string

const (
	OpSetStock          Op = "set_stock"
	OpUpdateProduct     Op = "update_product"
	OpAddProduct        Op = "add_product"
	OpDeleteProduct     Op = "delete_product"
	OpPlaceOrder        Op = "place_order"
	OpUpdateOrderStatus Op = "update_order_status"
)

// ChangeKey is the message key every change is published under, keeping
// all changes on one ordered partition.
const ChangeKey = "farmbe.change"

// Change announces a committed mutation. It carries no data: subscribers
// re-read the collections they care about.
type Change struct {
	ID          string    `json:"id"`
	Op          Op        `json:"op"`
	Collections []string  `json:"collections"`
	Ref         string    `json:"ref,omitempty"`
	Origin      string    `json:"origin"`
	Remote      bool      `json:"remote,omitempty"`
	At          time.Time `json:"at"`
}

// Touches reports whether the change affected the given collection key.
func (c Change) Touches(key string) bool {
	for _, k := range c.Collections {
		if k == key {
			return true
		}
	}
	return false
}

func (s *Store) newChange(op Op, collections []string, ref string) *Change {
	return &Change{
		ID:          uuid.NewString(),
		Op:          op,
		Collections: collections,
		Ref:         ref,
		Origin:      s.origin,
		At:          s.now(),
	}
}

// Subscribe registers fn to run after every committed mutation, local or
// remote. The returned function unregisters it and may be called any number
// of times.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

// publish notifies local subscribers, then broadcasts. A broadcast failure
// is logged; the commit it describes stands.
func (s *Store) publish(ctx context.Context, c Change) {
	s.dispatch(c)

	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, ChangeKey, c); err != nil {
		s.metrics.broadcastFailed()
		s.logger.Error("failed to broadcast change",
			zap.String("change_id", c.ID), zap.String("op", string(c.Op)), zap.Error(err))
	}
}

func (s *Store) dispatch(c Change) {
	s.subsMu.RLock()
	handlers := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range handlers {
		fn(c)
	}
}

// HandleEvent accepts a change published by another process. It has the
// shape of a Kafka or Redis message handler.
func (s *Store) HandleEvent(ctx context.Context, key, value []byte) error {
	var c Change
	if err := json.Unmarshal(value, &c); err != nil {
		return fmt.Errorf("decode change: %w", err)
	}
	if c.Origin == s.origin {
		return nil
	}

	c.Remote = true
	s.metrics.remote()
	s.logger.Debug("remote change",
		zap.String("change_id", c.ID), zap.String("op", string(c.Op)), zap.String("from", c.Origin))
	s.dispatch(c)
	return nil
}
