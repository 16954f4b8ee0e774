package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStorageUnreadable marks persisted data that is missing, malformed or
	// fails schema validation. Readers recover by treating the collection as
	// empty.
	ErrStorageUnreadable = errors.New("storage unreadable")

	// ErrNotFound is only returned by stores running in strict mode; the
	// default behaviour for a missing id is a silent no-op.
	ErrNotFound = errors.New("not found")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// Shortage describes one cart line that current stock cannot satisfy.
type Shortage struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Missing   bool   `json:"missing,omitempty"`
}

// InsufficientStockError lists every offending product of a rejected checkout.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		switch {
		case s.Missing:
			parts = append(parts, fmt.Sprintf("product %d does not exist", s.ProductID))
		case s.Name != "":
			parts = append(parts, fmt.Sprintf("%s (id %d): requested %d, available %d", s.Name, s.ProductID, s.Requested, s.Available))
		default:
			parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available))
		}
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidInputf builds an error that matches ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
