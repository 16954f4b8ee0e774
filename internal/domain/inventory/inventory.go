package inventory

import (
	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/cart"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/domain/product"
)

// Inventory is the ordered product collection. Methods never modify the
// receiver; mutating helpers return a new slice.
type Inventory []product.Product

func (inv Inventory) Index(id int) int {
	for i, p := range inv {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (inv Inventory) Find(id int) (product.Product, bool) {
	if i := inv.Index(id); i >= 0 {
		return inv[i], true
	}
	return product.Product{}, false
}

// NextID returns an id one above the current maximum.
func (inv Inventory) NextID() int {
	next := 1
	for _, p := range inv {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	copy(out, inv)
	return out
}

// TotalStock sums stock across all products.
func (inv Inventory) TotalStock() int {
	total := 0
	for _, p := range inv {
		total += p.Stock
	}
	return total
}

// Check validates a cart against current stock. Lines for the same product
// are combined first, so two lines that fit individually but not together
// are rejected. Every offending product is reported.
func (inv Inventory) Check(lines []cart.Line) ([]cart.Line, error) {
	c, err := cart.FromLines(lines)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, order.ErrEmptyOrder
	}

	merged := c.Lines()
	var shortages []domain.Shortage
	for _, line := range merged {
		p, ok := inv.Find(line.ProductID)
		if !ok {
			shortages = append(shortages, domain.Shortage{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Missing:   true,
			})
			continue
		}
		if p.Stock < line.Quantity {
			shortages = append(shortages, domain.Shortage{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Stock,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &domain.InsufficientStockError{Shortages: shortages}
	}
	return merged, nil
}

// Deduct validates the cart and, only if every line fits, returns a new
// inventory with stock decremented plus the purchase snapshots.
func (inv Inventory) Deduct(lines []cart.Line) (Inventory, []order.Item, error) {
	merged, err := inv.Check(lines)
	if err != nil {
		return nil, nil, err
	}

	next := inv.Clone()
	items := make([]order.Item, 0, len(merged))
	for _, line := range merged {
		i := next.Index(line.ProductID)
		items = append(items, order.NewItem(next[i], line.Quantity))
		next[i].Stock -= line.Quantity
	}
	return next, items, nil
}
