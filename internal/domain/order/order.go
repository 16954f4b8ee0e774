package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/cart"
	"github.com/example/farmbe-store/internal/domain/product"
	"github.com/shopspring/decimal"
)

const IDPrefix = "ORD-"

var ErrEmptyOrder = fmt.Errorf("%w: order must have at least one item", domain.ErrInvalidInput)

// Item is a snapshot of one purchased product. It holds no reference to the
// live inventory entry.
type Item struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID           string          `json:"id"`
	Customer     string          `json:"customer"`
	Source       string          `json:"source,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	Items        []Item          `json:"items"`
	Summary      string          `json:"summary"`
	Total        decimal.Decimal `json:"total"`
	Status       Status          `json:"status"`
	Date         time.Time       `json:"date"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DispatchedAt *time.Time      `json:"dispatched_at,omitempty"`
}

// Request is the checkout input: who is buying and what is in the cart.
type Request struct {
	Customer    string      `json:"customer"`
	Source      string      `json:"source,omitempty"`
	Destination string      `json:"destination,omitempty"`
	Items       []cart.Line `json:"items"`
}

// NewItem snapshots a product at the given quantity.
func NewItem(p product.Product, quantity int) Item {
	return Item{
		ProductID: p.ID,
		Name:      p.Name,
		Unit:      p.Unit,
		UnitPrice: p.Price,
		Quantity:  quantity,
		Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// New builds a Pending order whose total is fixed from the item snapshots.
func New(id, customer, source, destination string, items []Item, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	snapshot := make([]Item, len(items))
	copy(snapshot, items)

	total := decimal.Zero
	for _, item := range snapshot {
		total = total.Add(item.Subtotal)
	}

	return &Order{
		ID:          id,
		Customer:    customer,
		Source:      source,
		Destination: destination,
		Items:       snapshot,
		Summary:     Summarize(snapshot),
		Total:       total,
		Status:      StatusPending,
		Date:        now,
		UpdatedAt:   now,
	}, nil
}

// Summarize renders items the way order lists show them:
// "Tomatoes (50kg), Onions (100kg)".
func Summarize(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (%d%s)", item.Name, item.Quantity, item.Unit))
	}
	return strings.Join(parts, ", ")
}

// Transition moves the order to target. It reports whether anything changed;
// re-applying the current status is a no-op.
func (o *Order) Transition(target Status, now time.Time) (bool, error) {
	if !target.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	if o.Status.IsTerminal() {
		return false, fmt.Errorf("%w: order %s is %s", ErrTerminalStatus, o.ID, o.Status)
	}
	if o.Status == target {
		return false, nil
	}
	if !o.Status.CanTransitionTo(target) {
		return false, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}

	o.Status = target
	o.UpdatedAt = now
	if target == StatusInTransit && o.DispatchedAt == nil {
		dispatched := now
		o.DispatchedAt = &dispatched
	}
	return true, nil
}

// Validate checks a decoded order for structural soundness.
func (o Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return domain.InvalidInputf("order id is empty")
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, o.Status)
	}
	if o.Total.IsNegative() {
		return domain.InvalidInputf("order %s has a negative total", o.ID)
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return domain.InvalidInputf("order %s has a non-positive quantity", o.ID)
		}
	}
	return nil
}
