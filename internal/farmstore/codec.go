package farmstore

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/inventory"
	"github.com/example/farmbe-store/internal/domain/order"
)

// decodeInventory parses and validates a persisted inventory. Anything that
// is not a JSON array of valid products with unique ids is unreadable.
func decodeInventory(raw []byte) (inventory.Inventory, error) {
	if err := expectArray(raw); err != nil {
		return nil, err
	}
	var inv inventory.Inventory
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnreadable, err)
	}

	seen := make(map[int]struct{}, len(inv))
	for _, p := range inv {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", domain.ErrStorageUnreadable, p.ID, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %d", domain.ErrStorageUnreadable, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return inv, nil
}

func decodeOrders(raw []byte) ([]order.Order, error) {
	if err := expectArray(raw); err != nil {
		return nil, err
	}
	var orders []order.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnreadable, err)
	}

	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnreadable, err)
		}
		if _, dup := seen[o.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate order id %s", domain.ErrStorageUnreadable, o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	return orders, nil
}

func expectArray(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: not a JSON array", domain.ErrStorageUnreadable)
	}
	return nil
}

// encodeCollection always yields a JSON array, never null.
func encodeCollection[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}
