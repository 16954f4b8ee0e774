package cart

import (
	"fmt"
	"math"

	"github.com/example/farmbe-store/internal/domain"
)

var (
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	ErrInvalidProduct  = fmt.Errorf("%w: product_id is required", domain.ErrInvalidInput)
)

// Line is one product/quantity pair of a cart.
type Line struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// Cart is a transient, pre-checkout list of lines. It keeps insertion order
// and merges repeated products into a single line.
type Cart struct {
	lines []Line
	index map[int]int // productID -> position in lines
}

func New() *Cart {
	return &Cart{index: make(map[int]int)}
}

// FromLines builds a cart from raw lines, merging duplicates.
func FromLines(lines []Line) (*Cart, error) {
	c := New()
	for _, l := range lines {
		if err := c.Add(l.ProductID, l.Quantity); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Cart) Add(productID, quantity int) error {
	if productID <= 0 {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if i, ok := c.index[productID]; ok {
		if quantity > math.MaxInt-c.lines[i].Quantity {
			return fmt.Errorf("%w: merged quantity for product %d overflows", ErrInvalidQuantity, productID)
		}
		c.lines[i].Quantity += quantity
		return nil
	}
	c.index[productID] = len(c.lines)
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: quantity})
	return nil
}

// SetQuantity replaces the quantity of a line; zero removes it.
func (c *Cart) SetQuantity(productID, quantity int) error {
	if productID <= 0 {
		return ErrInvalidProduct
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		c.Remove(productID)
		return nil
	}
	if i, ok := c.index[productID]; ok {
		c.lines[i].Quantity = quantity
		return nil
	}
	return c.Add(productID, quantity)
}

func (c *Cart) Remove(productID int) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[int]int)
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
