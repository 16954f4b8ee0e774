package product

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/shopspring/decimal"
)

const DefaultUnit = "kg"

var (
	ErrInvalidName   = fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	ErrInvalidPrice  = fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidInput)
	ErrNegativeStock = fmt.Errorf("%w: stock must be a non-negative integer", domain.ErrInvalidInput)
	ErrInvalidID     = fmt.Errorf("%w: product id must be positive", domain.ErrInvalidInput)
)

// Product is one sellable line of the inventory.
type Product struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Unit     string          `json:"unit"`
	Image    string          `json:"image"`
}

// Fields are the caller-supplied attributes of a new product.
type Fields struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Unit     string          `json:"unit"`
	Image    string          `json:"image"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Unit     *string          `json:"unit,omitempty"`
	Image    *string          `json:"image,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil &&
		p.Stock == nil && p.Unit == nil && p.Image == nil
}

// Validate checks the invariants every stored product must satisfy.
func (p Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// New builds a product from create fields. The id and a fallback image are
// assigned by the caller.
func New(id int, f Fields) (Product, error) {
	p := Product{
		ID:       id,
		Name:     strings.TrimSpace(f.Name),
		Category: strings.TrimSpace(f.Category),
		Price:    f.Price,
		Stock:    f.Stock,
		Unit:     strings.TrimSpace(f.Unit),
		Image:    strings.TrimSpace(f.Image),
	}
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Apply returns a copy of p with the patch merged in. The receiver is never
// modified, so a rejected patch leaves the original intact.
func (p Product) Apply(patch Patch) (Product, error) {
	next := p
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		next.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Price != nil {
		next.Price = *patch.Price
	}
	if patch.Stock != nil {
		next.Stock = *patch.Stock
	}
	if patch.Unit != nil {
		next.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.Image != nil {
		next.Image = strings.TrimSpace(*patch.Image)
	}
	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}

// ParseStock coerces loosely typed numeric input into a stock level.
// Fractions are truncated; anything non-numeric, non-finite or negative is
// rejected rather than silently becoming zero.
func ParseStock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty value", ErrNegativeStock)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrNegativeStock, raw)
	}
	if f < 0 {
		return 0, ErrNegativeStock
	}
	if f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q is too large", ErrNegativeStock, raw)
	}
	return int(math.Trunc(f)), nil
}

// ParsePrice parses a non-negative decimal unit price.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidPrice, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}
