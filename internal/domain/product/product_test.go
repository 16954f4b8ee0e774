package product

import (
	"testing"

	"github.com/example/farmbe-store/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// ============================================
// New Tests
// ============================================

func TestNew_ValidProduct(t *testing.T) {
	p, err := New(9, Fields{
		Name:     "  Carrots ",
		Category: "Vegetables",
		Price:    decimal.NewFromInt(38),
		Stock:    120,
	})

	require.NoError(t, err)
	assert.Equal(t, 9, p.ID)
	assert.Equal(t, "Carrots", p.Name)
	assert.Equal(t, DefaultUnit, p.Unit)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(38)))
}

func TestNew_InvalidFields(t *testing.T) {
	tests := []struct {
		name     string
		fields   Fields
		expected error
	}{
		{"empty name", Fields{Name: " ", Price: decimal.NewFromInt(1)}, ErrInvalidName},
		{"negative price", Fields{Name: "Okra", Price: decimal.NewFromInt(-1)}, ErrInvalidPrice},
		{"negative stock", Fields{Name: "Okra", Price: decimal.NewFromInt(1), Stock: -3}, ErrNegativeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(1, tt.fields)

			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestNew_ZeroPriceAndStockAllowed(t *testing.T) {
	p, err := New(1, Fields{Name: "Free Samples"})

	require.NoError(t, err)
	assert.True(t, p.Price.IsZero())
	assert.Equal(t, 0, p.Stock)
}

// ============================================
// Apply Tests
// ============================================

func TestApply_MergesOnlySetFields(t *testing.T) {
	original := DefaultInventory()[0]
	price := decimal.NewFromInt(50)

	updated, err := original.Apply(Patch{Price: &price, Unit: strPtr("crate")})

	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "crate", updated.Unit)
	assert.Equal(t, original.Name, updated.Name)
	assert.Equal(t, original.Stock, updated.Stock)
	assert.True(t, original.Price.Equal(decimal.NewFromInt(45)), "receiver must not change")
}

func TestApply_RejectsInvalidPatch(t *testing.T) {
	original := DefaultInventory()[0]

	result, err := original.Apply(Patch{Name: strPtr("Ripe Tomatoes"), Stock: intPtr(-1)})

	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.Equal(t, original, result)
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Image: strPtr("")}.IsEmpty())
}

// ============================================
// Parse Tests
// ============================================

func TestParseStock(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
		wantErr  bool
	}{
		{"12", 12, false},
		{" 7 ", 7, false},
		{"12.9", 12, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"", 0, true},
		{"1e12", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStock(tt.raw)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParsePrice(t *testing.T) {
	d, err := ParsePrice("42.50")
	require.NoError(t, err)
	assert.Equal(t, "42.5", d.String())

	_, err = ParsePrice("-3")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ParsePrice("forty")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ============================================
// Seed / Images Tests
// ============================================

func TestDefaultInventory_IsValidAndFresh(t *testing.T) {
	seed := DefaultInventory()

	require.NotEmpty(t, seed)
	assert.Equal(t, "Tomatoes", seed[0].Name)
	assert.Equal(t, 500, seed[0].Stock)
	for _, p := range seed {
		assert.NoError(t, p.Validate())
	}

	seed[0].Stock = 1
	assert.Equal(t, 500, DefaultInventory()[0].Stock)
}

func TestRandomImage(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, FallbackImages, RandomImage(FallbackImages))
	}
	assert.Equal(t, ImageDefault, RandomImage(nil))
}
