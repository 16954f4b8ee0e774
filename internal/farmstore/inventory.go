package farmstore

import (
	"context"
	"fmt"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/inventory"
	"github.com/example/farmbe-store/internal/domain/product"
	"github.com/example/farmbe-store/internal/infrastructure/store"
	"go.uber.org/zap"
)

// ListInventory returns the current products. It never fails: a backend
// error or unreadable data yields an empty list.
func (s *Store) ListInventory(ctx context.Context) []product.Product {
	st, err := s.load(ctx)
	if err != nil {
		s.logger.Error("failed to read inventory", zap.Error(err))
		return []product.Product{}
	}
	if st.inventory == nil {
		return []product.Product{}
	}
	return st.inventory
}

// GetProduct looks up one product by id.
func (s *Store) GetProduct(ctx context.Context, id int) (product.Product, bool) {
	return inventory.Inventory(s.ListInventory(ctx)).Find(id)
}

// SetStock replaces the stock level of product id.
func (s *Store) SetStock(ctx context.Context, id, stock int) error {
	if stock < 0 {
		return product.ErrNegativeStock
	}
	return s.mutate(ctx, OpSetStock, func(st *state) ([]string, string, error) {
		i := st.inventory.Index(id)
		if i < 0 {
			return nil, "", s.notFound("product", id)
		}
		st.inventory[i].Stock = stock
		return []string{store.InventoryKey}, productRef(id), nil
	})
}

// UpdateProduct merges patch into product id. The patch is validated as a
// whole before anything is written.
func (s *Store) UpdateProduct(ctx context.Context, id int, patch product.Patch) error {
	if patch.IsEmpty() {
		return nil
	}
	return s.mutate(ctx, OpUpdateProduct, func(st *state) ([]string, string, error) {
		i := st.inventory.Index(id)
		if i < 0 {
			return nil, "", s.notFound("product", id)
		}
		updated, err := st.inventory[i].Apply(patch)
		if err != nil {
			return nil, "", err
		}
		st.inventory[i] = updated
		return []string{store.InventoryKey}, productRef(id), nil
	})
}

// AddProduct appends a new product with the next free id and returns the
// updated inventory. A missing image is replaced by a fallback picture.
func (s *Store) AddProduct(ctx context.Context, fields product.Fields) ([]product.Product, error) {
	if _, err := product.New(1, fields); err != nil {
		return nil, err
	}

	var result []product.Product
	err := s.mutate(ctx, OpAddProduct, func(st *state) ([]string, string, error) {
		p, err := product.New(st.inventory.NextID(), fields)
		if err != nil {
			return nil, "", err
		}
		if p.Image == "" {
			p.Image = s.pickImage(product.FallbackImages)
		}
		st.inventory = append(st.inventory.Clone(), p)
		result = st.inventory.Clone()
		return []string{store.InventoryKey}, productRef(p.ID), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteProduct removes product id. Orders that reference it keep their
// snapshot.
func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	return s.mutate(ctx, OpDeleteProduct, func(st *state) ([]string, string, error) {
		i := st.inventory.Index(id)
		if i < 0 {
			return nil, "", s.notFound("product", id)
		}
		next := make(inventory.Inventory, 0, len(st.inventory)-1)
		next = append(next, st.inventory[:i]...)
		next = append(next, st.inventory[i+1:]...)
		st.inventory = next
		return []string{store.InventoryKey}, productRef(id), nil
	})
}

func (s *Store) notFound(kind string, id any) error {
	if !s.strict {
		s.logger.Debug("ignoring mutation of unknown "+kind, zap.Any("id", id))
		return nil
	}
	return fmt.Errorf("%w: %s %v", domain.ErrNotFound, kind, id)
}

func productRef(id int) string {
	return fmt.Sprintf("product:%d", id)
}
