package command

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/cart"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/domain/product"
	"github.com/shopspring/decimal"
)

// Store is the write side of the shared store.
type Store interface {
	SetStock(ctx context.Context, id, stock int) error
	UpdateProduct(ctx context.Context, id int, patch product.Patch) error
	AddProduct(ctx context.Context, fields product.Fields) ([]product.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	PlaceOrder(ctx context.Context, req order.Request) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status order.Status) error
}

// Handler turns loosely typed commands into validated store calls. Nothing
// reaches the store until every field has parsed.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// CreateProduct adds a product and returns the updated inventory
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) ([]product.Product, error) {
	price, err := product.ParsePrice(string(cmd.Price))
	if err != nil {
		return nil, err
	}
	stock := 0
	if cmd.Stock != "" {
		if stock, err = product.ParseStock(string(cmd.Stock)); err != nil {
			return nil, err
		}
	}

	return h.store.AddProduct(ctx, product.Fields{
		Name:     cmd.Name,
		Category: cmd.Category,
		Price:    price,
		Stock:    stock,
		Unit:     cmd.Unit,
		Image:    cmd.Image,
	})
}

// UpdateProduct applies a partial update
func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	if err := checkProductID(cmd.ProductID); err != nil {
		return err
	}

	patch := product.Patch{
		Name:     cmd.Name,
		Category: cmd.Category,
		Unit:     cmd.Unit,
		Image:    cmd.Image,
	}
	if cmd.Price != nil {
		price, err := product.ParsePrice(string(*cmd.Price))
		if err != nil {
			return err
		}
		patch.Price = &price
	}
	if cmd.Stock != nil {
		stock, err := product.ParseStock(string(*cmd.Stock))
		if err != nil {
			return err
		}
		patch.Stock = &stock
	}

	return h.store.UpdateProduct(ctx, cmd.ProductID, patch)
}

// SetStock replaces a product's stock level
func (h *Handler) SetStock(ctx context.Context, cmd SetStock) error {
	if err := checkProductID(cmd.ProductID); err != nil {
		return err
	}
	stock, err := product.ParseStock(string(cmd.Stock))
	if err != nil {
		return err
	}
	return h.store.SetStock(ctx, cmd.ProductID, stock)
}

// DeleteProduct deletes a product
func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	if err := checkProductID(cmd.ProductID); err != nil {
		return err
	}
	return h.store.DeleteProduct(ctx, cmd.ProductID)
}

// PlaceOrder normalizes the cart and checks out
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	c := cart.New()
	for _, item := range cmd.Items {
		qty, err := parseQuantity(item.Quantity.String())
		if err != nil {
			return nil, err
		}
		if err := c.Add(item.ProductID, qty); err != nil {
			return nil, err
		}
	}
	if c.IsEmpty() {
		return nil, order.ErrEmptyOrder
	}

	return h.store.PlaceOrder(ctx, order.Request{
		Customer:    cmd.Customer,
		Source:      cmd.Source,
		Destination: cmd.Destination,
		Items:       c.Lines(),
	})
}

// UpdateOrderStatus parses the status tag and applies it
func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) error {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return domain.InvalidInputf("order_id is required")
	}
	status, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return err
	}
	return h.store.UpdateOrderStatus(ctx, cmd.OrderID, status)
}

func checkProductID(id int) error {
	if id <= 0 {
		return product.ErrInvalidID
	}
	return nil
}

// parseQuantity accepts whole numbers only; a cart line of 2.5 units is a
// client bug, not something to round.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, cart.ErrInvalidQuantity
		}
		return n, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0, fmt.Errorf("%w: %q", cart.ErrInvalidQuantity, raw)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt)) {
		return 0, fmt.Errorf("%w: %q is too large", cart.ErrInvalidQuantity, raw)
	}
	return int(d.IntPart()), nil
}
