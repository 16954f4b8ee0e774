package product

import "github.com/shopspring/decimal"

// DefaultInventory returns a fresh copy of the dataset written by the first
// store initialization.
func DefaultInventory() []Product {
	return []Product{
		{ID: 1, Name: "Tomatoes", Category: "Vegetables", Price: decimal.NewFromInt(45), Stock: 500, Unit: "kg", Image: ImageProduce},
		{ID: 2, Name: "Potatoes", Category: "Vegetables", Price: decimal.NewFromInt(30), Stock: 800, Unit: "kg", Image: ImageFarm},
		{ID: 3, Name: "Onions", Category: "Vegetables", Price: decimal.NewFromInt(35), Stock: 650, Unit: "kg", Image: ImageProduce},
		{ID: 4, Name: "Alphonso Mangoes", Category: "Fruits", Price: decimal.NewFromInt(120), Stock: 200, Unit: "kg", Image: ImageDefault},
		{ID: 5, Name: "Bananas", Category: "Fruits", Price: decimal.NewFromInt(40), Stock: 300, Unit: "kg", Image: ImageDefault},
		{ID: 6, Name: "Basmati Rice", Category: "Grains", Price: decimal.NewFromInt(90), Stock: 1000, Unit: "kg", Image: ImageFarm},
		{ID: 7, Name: "Wheat", Category: "Grains", Price: decimal.NewFromInt(28), Stock: 1200, Unit: "kg", Image: ImageFarm},
		{ID: 8, Name: "Spinach", Category: "Vegetables", Price: decimal.NewFromInt(25), Stock: 150, Unit: "kg", Image: ImageProduce},
	}
}
