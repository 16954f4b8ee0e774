package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/domain/product"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold flags products whose stock is strictly below it.
const DefaultLowStockThreshold = 200

// Reader is the read side of the shared store.
type Reader interface {
	ListInventory(ctx context.Context) []product.Product
	GetProduct(ctx context.Context, id int) (product.Product, bool)
	ListOrders(ctx context.Context) []order.Order
	GetOrder(ctx context.Context, id string) (order.Order, bool)
}

type Handler struct {
	store    Reader
	lowStock int
}

func NewHandler(store Reader) *Handler {
	return &Handler{store: store, lowStock: DefaultLowStockThreshold}
}

// WithLowStockThreshold overrides the farmer dashboard's low-stock cut-off.
func (h *Handler) WithLowStockThreshold(n int) *Handler {
	if n > 0 {
		h.lowStock = n
	}
	return h
}

// OrderFilter narrows ListOrders. Zero fields match everything.
type OrderFilter struct {
	Status   order.Status
	Customer string
}

func (f OrderFilter) matches(o order.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Customer != "" && !sameName(o.Customer, f.Customer) {
		return false
	}
	return true
}

// Products
func (h *Handler) ListProducts(ctx context.Context, category string) []product.Product {
	products := h.store.ListInventory(ctx)
	category = strings.TrimSpace(category)
	if category == "" {
		return products
	}
	filtered := make([]product.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func (h *Handler) GetProduct(ctx context.Context, id int) (product.Product, bool) {
	return h.store.GetProduct(ctx, id)
}

// Categories returns the distinct product categories in alphabetical order.
func (h *Handler) Categories(ctx context.Context) []string {
	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range h.store.ListInventory(ctx) {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories
}

// Orders
func (h *Handler) ListOrders(ctx context.Context, filter OrderFilter) []order.Order {
	orders := h.store.ListOrders(ctx)
	if filter == (OrderFilter{}) {
		return orders
	}
	filtered := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if filter.matches(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

func (h *Handler) GetOrder(ctx context.Context, id string) (order.Order, bool) {
	return h.store.GetOrder(ctx, id)
}

// LatestOrder returns the newest order, optionally restricted to one customer.
func (h *Handler) LatestOrder(ctx context.Context, customer string) (order.Order, bool) {
	for _, o := range h.store.ListOrders(ctx) {
		if customer == "" || sameName(o.Customer, customer) {
			return o, true
		}
	}
	return order.Order{}, false
}

// Dashboard builds the summary for a role. The name scopes the pg view to
// that customer's own orders.
func (h *Handler) Dashboard(ctx context.Context, role domain.Role, name string) (*Dashboard, error) {
	d := &Dashboard{Role: role, Name: name}
	switch role {
	case domain.RoleFarmer:
		d.Farmer = h.farmerSummary(ctx)
	case domain.RolePG:
		d.PG = h.pgSummary(ctx, name)
	case domain.RoleMiddleman:
		d.Middleman = h.middlemanSummary(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return d, nil
}

func (h *Handler) farmerSummary(ctx context.Context) *FarmerSummary {
	products := h.store.ListInventory(ctx)
	s := &FarmerSummary{
		Products:      len(products),
		LowStock:      []StockLine{},
		Categories:    []CategoryStock{},
		Revenue:       decimal.Zero,
		LowStockBelow: h.lowStock,
	}

	byCategory := make(map[string]*CategoryStock)
	for _, p := range products {
		s.TotalStock += p.Stock
		if p.Stock < h.lowStock {
			s.LowStock = append(s.LowStock, StockLine{ProductID: p.ID, Name: p.Name, Stock: p.Stock, Unit: p.Unit})
		}
		c, ok := byCategory[p.Category]
		if !ok {
			c = &CategoryStock{Category: p.Category}
			byCategory[p.Category] = c
		}
		c.Products++
		c.Stock += p.Stock
	}
	for _, c := range byCategory {
		s.Categories = append(s.Categories, *c)
	}
	sort.Slice(s.Categories, func(i, j int) bool { return s.Categories[i].Category < s.Categories[j].Category })
	sort.SliceStable(s.LowStock, func(i, j int) bool { return s.LowStock[i].Stock < s.LowStock[j].Stock })

	for _, o := range h.store.ListOrders(ctx) {
		if o.Status == order.StatusCancelled {
			continue
		}
		s.Revenue = s.Revenue.Add(o.Total)
		if awaitingDispatch(o.Status) {
			s.OpenOrders++
		}
	}
	return s
}

func (h *Handler) pgSummary(ctx context.Context, customer string) *PGSummary {
	s := &PGSummary{TotalSpend: decimal.Zero}
	for _, o := range h.ListOrders(ctx, OrderFilter{Customer: customer}) {
		if s.Latest == nil {
			latest := o
			s.Latest = &latest
		}
		s.Orders++
		switch o.Status {
		case order.StatusDelivered:
			s.Delivered++
		case order.StatusCancelled:
			s.Cancelled++
			continue
		default:
			s.Active++
		}
		s.TotalSpend = s.TotalSpend.Add(o.Total)
	}
	return s
}

func (h *Handler) middlemanSummary(ctx context.Context) *MiddlemanSummary {
	s := &MiddlemanSummary{AwaitingDispatch: []OrderLine{}, InTransit: []OrderLine{}}
	for _, o := range h.store.ListOrders(ctx) {
		switch {
		case awaitingDispatch(o.Status):
			s.AwaitingDispatch = append(s.AwaitingDispatch, newOrderLine(o))
		case o.Status == order.StatusInTransit || o.Status == order.StatusShipped:
			s.InTransit = append(s.InTransit, newOrderLine(o))
		case o.Status == order.StatusDelivered:
			s.Delivered++
		case o.Status == order.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

func awaitingDispatch(s order.Status) bool {
	return s == order.StatusPending || s == order.StatusReady
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
