package order

import (
	"testing"
	"time"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func tomatoes() product.Product {
	return product.DefaultInventory()[0]
}

func newPendingOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("ORD-1", "Sai PG Stays", "GreenEarth Estates", "Sai PG Stays",
		[]Item{NewItem(tomatoes(), 50)}, testNow)
	require.NoError(t, err)
	return o
}

// ============================================
// New Order Tests
// ============================================

func TestNew_ComputesTotalAndSummary(t *testing.T) {
	onions := product.DefaultInventory()[2]

	o, err := New("ORD-1", "Sai PG Stays", "", "", []Item{
		NewItem(tomatoes(), 50),
		NewItem(onions, 100),
	}, testNow)

	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(45*50+35*100)))
	assert.Equal(t, "Tomatoes (50kg), Onions (100kg)", o.Summary)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, testNow, o.Date)
	assert.Nil(t, o.DispatchedAt)
}

func TestNew_EmptyItems(t *testing.T) {
	o, err := New("ORD-1", "x", "", "", nil, testNow)

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, o)
}

func TestNewItem_SnapshotsPrice(t *testing.T) {
	p := tomatoes()
	item := NewItem(p, 3)

	p.Price = decimal.NewFromInt(1000)

	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(45)))
	assert.True(t, item.Subtotal.Equal(decimal.NewFromInt(135)))
}

// ============================================
// Status Tests
// ============================================

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected Status
	}{
		{"Pending", StatusPending},
		{"shipped", StatusShipped},
		{"In Transit", StatusInTransit},
		{"in_transit", StatusInTransit},
		{"IN-TRANSIT", StatusInTransit},
		{" Delivered ", StatusDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := ParseStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}

	_, err := ParseStatus("Lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range Statuses {
		expected := s == StatusDelivered || s == StatusCancelled
		assert.Equal(t, expected, s.IsTerminal(), string(s))
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusShipped))
	assert.True(t, StatusShipped.CanTransitionTo(StatusPending))
	assert.True(t, StatusReady.CanTransitionTo(StatusInTransit))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusShipped))
	assert.False(t, Status("bogus").CanTransitionTo(StatusPending))
}

// ============================================
// Transition Tests
// ============================================

func TestTransition_ForwardChain(t *testing.T) {
	o := newPendingOrder(t)
	later := testNow.Add(time.Hour)

	for _, s := range []Status{StatusReady, StatusInTransit, StatusDelivered} {
		changed, err := o.Transition(s, later)
		require.NoError(t, err)
		assert.True(t, changed)
	}

	assert.Equal(t, StatusDelivered, o.Status)
	assert.Equal(t, later, o.UpdatedAt)
	require.NotNil(t, o.DispatchedAt)
	assert.Equal(t, later, *o.DispatchedAt)
}

func TestTransition_DispatchedAtSetOnce(t *testing.T) {
	o := newPendingOrder(t)
	first := testNow.Add(time.Minute)

	_, err := o.Transition(StatusInTransit, first)
	require.NoError(t, err)
	_, err = o.Transition(StatusReady, first.Add(time.Minute))
	require.NoError(t, err)
	_, err = o.Transition(StatusInTransit, first.Add(2*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, first, *o.DispatchedAt)
}

func TestTransition_SameStatusIsNoop(t *testing.T) {
	o := newPendingOrder(t)

	changed, err := o.Transition(StatusPending, testNow.Add(time.Hour))

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, testNow, o.UpdatedAt)
}

func TestTransition_TerminalRejected(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCancelled} {
		t.Run(string(terminal), func(t *testing.T) {
			o := newPendingOrder(t)
			_, err := o.Transition(terminal, testNow)
			require.NoError(t, err)

			for _, target := range Statuses {
				changed, err := o.Transition(target, testNow.Add(time.Hour))
				assert.ErrorIs(t, err, ErrTerminalStatus)
				assert.False(t, changed)
			}
			assert.Equal(t, terminal, o.Status)
		})
	}
}

func TestTransition_InvalidTarget(t *testing.T) {
	o := newPendingOrder(t)

	changed, err := o.Transition(Status("Teleported"), testNow)

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.False(t, changed)
	assert.Equal(t, StatusPending, o.Status)
}

// ============================================
// Validate Tests
// ============================================

func TestValidate(t *testing.T) {
	o := newPendingOrder(t)
	assert.NoError(t, o.Validate())

	bad := *o
	bad.Status = "paid"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidStatus)

	bad = *o
	bad.ID = ""
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidInput)

	bad = *o
	bad.Items = []Item{{ProductID: 1, Quantity: 0}}
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidInput)
}
