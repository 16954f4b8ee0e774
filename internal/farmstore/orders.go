package farmstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/infrastructure/store"
	"go.uber.org/zap"
)

// ListOrders returns orders newest first. It never fails.
func (s *Store) ListOrders(ctx context.Context) []order.Order {
	st, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to read orders", zap.Error(err))
		return []order.Order{}
	}
	if st.orders == nil {
		return []order.Order{}
	}
	return st.orders
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, bool) {
	for _, o := range s.ListOrders(ctx) {
		if o.ID == id {
			return o, true
		}
	}
	return order.Order{}, false
}

// PlaceOrder checks out a cart. Either every line is in stock and the order
// plus the decremented inventory are committed together, or nothing
// changes and the error lists every offending product.
func (s *Store) PlaceOrder(ctx context.Context, req order.Request) (*order.Order, error) {
	var placed *order.Order
	err := s.mutate(ctx, OpPlaceOrder, func(st *state) ([]string, string, error) {
		next, items, err := st.inventory.Deduct(req.Items)
		if err != nil {
			return nil, "", err
		}

		o, err := order.New(
			s.newOrderID(),
			orDefault(req.Customer, s.defaults.Customer),
			orDefault(req.Source, s.defaults.Source),
			orDefault(req.Destination, s.defaults.Destination),
			items,
			s.now(),
		)
		if err != nil {
			return nil, "", err
		}

		st.inventory = next
		st.orders = append([]order.Order{*o}, st.orders...)
		placed = o
		return []string{store.InventoryKey, store.OrdersKey}, orderRef(o.ID), nil
	})
	if err != nil {
		s.metrics.rejected(rejectReason(err))
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("customer", placed.Customer),
		zap.String("total", placed.Total.String()),
		zap.Int("items", len(placed.Items)))
	return placed, nil
}

// UpdateOrderStatus moves order id to status. Delivered and Cancelled are
// final; re-applying the current status changes nothing.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", order.ErrInvalidStatus, status)
	}
	return s.mutate(ctx, OpUpdateOrderStatus, func(st *state) ([]string, string, error) {
		for i := range st.orders {
			if st.orders[i].ID != id {
				continue
			}
			changed, err := st.orders[i].Transition(status, s.now())
			if err != nil || !changed {
				return nil, "", err
			}
			return []string{store.OrdersKey}, orderRef(id), nil
		}
		return nil, "", s.notFound("order", id)
	})
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func orderRef(id string) string {
	return "order:" + id
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, store.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}
