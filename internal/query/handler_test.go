package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/cart"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/farmstore"
	"github.com/example/farmbe-store/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryHandler(t *testing.T) (*Handler, *farmstore.Store) {
	t.Helper()
	n := 0
	s := farmstore.New(store.NewMemoryBackend(),
		farmstore.WithClock(func() time.Time { return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC) }),
		farmstore.WithOrderIDGenerator(func() string { n++; return fmt.Sprintf("ORD-%d", n) }),
	)
	require.NoError(t, s.Initialize(context.Background()))
	return NewHandler(s), s
}

func placeOrder(t *testing.T, s *farmstore.Store, customer string, productID, qty int) string {
	t.Helper()
	o, err := s.PlaceOrder(context.Background(), order.Request{
		Customer: customer,
		Items:    []cart.Line{{ProductID: productID, Quantity: qty}},
	})
	require.NoError(t, err)
	return o.ID
}

// seedOrders leaves ORD-1 Delivered, ORD-2 In Transit and ORD-3 Pending.
func seedOrders(t *testing.T, s *farmstore.Store) {
	t.Helper()
	ctx := context.Background()
	first := placeOrder(t, s, "Sai PG Stays", 1, 50)
	second := placeOrder(t, s, "Green Valley PG", 3, 100)
	placeOrder(t, s, "Sai PG Stays", 8, 10)
	require.NoError(t, s.UpdateOrderStatus(ctx, first, order.StatusDelivered))
	require.NoError(t, s.UpdateOrderStatus(ctx, second, order.StatusInTransit))
}

// ============================================
// Product Query Tests
// ============================================

func TestHandler_GetProduct_Found(t *testing.T) {
	handler, _ := newTestQueryHandler(t)

	p, found := handler.GetProduct(context.Background(), 1)

	assert.True(t, found)
	assert.Equal(t, "Tomatoes", p.Name)
	assert.Equal(t, 500, p.Stock)
}

func TestHandler_GetProduct_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler(t)

	_, found := handler.GetProduct(context.Background(), 99)

	assert.False(t, found)
}

func TestHandler_ListProducts_All(t *testing.T) {
	handler, _ := newTestQueryHandler(t)

	products := handler.ListProducts(context.Background(), "")

	assert.Len(t, products, 8)
}

func TestHandler_ListProducts_ByCategory(t *testing.T) {
	handler, _ := newTestQueryHandler(t)

	fruits := handler.ListProducts(context.Background(), " fruits ")

	require.Len(t, fruits, 2)
	for _, p := range fruits {
		assert.Equal(t, "Fruits", p.Category)
	}
	assert.Empty(t, handler.ListProducts(context.Background(), "Dairy"))
}

func TestHandler_Categories(t *testing.T) {
	handler, _ := newTestQueryHandler(t)

	assert.Equal(t, []string{"Fruits", "Grains", "Vegetables"}, handler.Categories(context.Background()))
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_ListOrders_Filters(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	seedOrders(t, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter OrderFilter
		want   []string
	}{
		{"no filter", OrderFilter{}, []string{"ORD-3", "ORD-2", "ORD-1"}},
		{"by status", OrderFilter{Status: order.StatusInTransit}, []string{"ORD-2"}},
		{"by customer", OrderFilter{Customer: "sai pg stays"}, []string{"ORD-3", "ORD-1"}},
		{"both", OrderFilter{Status: order.StatusPending, Customer: "Sai PG Stays"}, []string{"ORD-3"}},
		{"no match", OrderFilter{Status: order.StatusCancelled}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, o := range handler.ListOrders(ctx, tt.filter) {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHandler_GetOrder(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	seedOrders(t, s)

	o, found := handler.GetOrder(context.Background(), "ORD-2")
	require.True(t, found)
	assert.Equal(t, "Onions (100kg)", o.Summary)

	_, found = handler.GetOrder(context.Background(), "ORD-404")
	assert.False(t, found)
}

func TestHandler_LatestOrder(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	ctx := context.Background()

	_, found := handler.LatestOrder(ctx, "")
	assert.False(t, found)

	seedOrders(t, s)

	latest, found := handler.LatestOrder(ctx, "")
	require.True(t, found)
	assert.Equal(t, "ORD-3", latest.ID)

	latest, found = handler.LatestOrder(ctx, "Green Valley PG")
	require.True(t, found)
	assert.Equal(t, "ORD-2", latest.ID)

	_, found = handler.LatestOrder(ctx, "Nobody")
	assert.False(t, found)
}

// ============================================
// Dashboard Tests
// ============================================

func TestHandler_Dashboard_Farmer(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	seedOrders(t, s)

	d, err := handler.Dashboard(context.Background(), domain.RoleFarmer, "Ravi")
	require.NoError(t, err)
	require.NotNil(t, d.Farmer)
	assert.Nil(t, d.PG)
	assert.Nil(t, d.Middleman)

	f := d.Farmer
	assert.Equal(t, 8, f.Products)
	assert.Equal(t, 4640, f.TotalStock)
	assert.Equal(t, []StockLine{{ProductID: 8, Name: "Spinach", Stock: 140, Unit: "kg"}}, f.LowStock)
	assert.Equal(t, []CategoryStock{
		{Category: "Fruits", Products: 2, Stock: 500},
		{Category: "Grains", Products: 2, Stock: 2200},
		{Category: "Vegetables", Products: 4, Stock: 1940},
	}, f.Categories)
	assert.Equal(t, 1, f.OpenOrders)
	assert.Equal(t, "6000", f.Revenue.String())
}

func TestHandler_Dashboard_FarmerThreshold(t *testing.T) {
	handler, _ := newTestQueryHandler(t)
	handler.WithLowStockThreshold(400)

	d, err := handler.Dashboard(context.Background(), domain.RoleFarmer, "")
	require.NoError(t, err)

	names := []string{}
	for _, l := range d.Farmer.LowStock {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"Spinach", "Alphonso Mangoes", "Bananas"}, names)
}

func TestHandler_Dashboard_PG(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	seedOrders(t, s)

	d, err := handler.Dashboard(context.Background(), domain.RolePG, "Sai PG Stays")
	require.NoError(t, err)
	require.NotNil(t, d.PG)

	assert.Equal(t, 2, d.PG.Orders)
	assert.Equal(t, 1, d.PG.Active)
	assert.Equal(t, 1, d.PG.Delivered)
	assert.Equal(t, 0, d.PG.Cancelled)
	assert.Equal(t, "2500", d.PG.TotalSpend.String())
	require.NotNil(t, d.PG.Latest)
	assert.Equal(t, "ORD-3", d.PG.Latest.ID)
}

func TestHandler_Dashboard_PGExcludesCancelledSpend(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	id := placeOrder(t, s, "Sai PG Stays", 2, 10)
	require.NoError(t, s.UpdateOrderStatus(context.Background(), id, order.StatusCancelled))

	d, err := handler.Dashboard(context.Background(), domain.RolePG, "Sai PG Stays")
	require.NoError(t, err)

	assert.Equal(t, 1, d.PG.Cancelled)
	assert.True(t, d.PG.TotalSpend.IsZero())
}

func TestHandler_Dashboard_Middleman(t *testing.T) {
	handler, s := newTestQueryHandler(t)
	seedOrders(t, s)

	d, err := handler.Dashboard(context.Background(), domain.RoleMiddleman, "")
	require.NoError(t, err)
	require.NotNil(t, d.Middleman)

	require.Len(t, d.Middleman.AwaitingDispatch, 1)
	assert.Equal(t, "ORD-3", d.Middleman.AwaitingDispatch[0].ID)
	require.Len(t, d.Middleman.InTransit, 1)
	assert.Equal(t, "ORD-2", d.Middleman.InTransit[0].ID)
	assert.Equal(t, 1, d.Middleman.Delivered)
	assert.Equal(t, 0, d.Middleman.Cancelled)
}

func TestHandler_Dashboard_UnknownRole(t *testing.T) {
	handler, _ := newTestQueryHandler(t)

	_, err := handler.Dashboard(context.Background(), domain.Role("admin"), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
