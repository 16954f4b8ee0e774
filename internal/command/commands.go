package command

import "encoding/json"

// Numeric fields are json.Number so that both 12 and "12" are accepted and
// parsed explicitly rather than silently zeroed.

// Product Commands
type CreateProduct struct {
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Price    json.Number `json:"price"`
	Stock    json.Number `json:"stock"`
	Unit     string      `json:"unit"`
	Image    string      `json:"image"`
}

type UpdateProduct struct {
	ProductID int          `json:"product_id"`
	Name      *string      `json:"name,omitempty"`
	Category  *string      `json:"category,omitempty"`
	Price     *json.Number `json:"price,omitempty"`
	Stock     *json.Number `json:"stock,omitempty"`
	Unit      *string      `json:"unit,omitempty"`
	Image     *string      `json:"image,omitempty"`
}

type SetStock struct {
	ProductID int         `json:"product_id"`
	Stock     json.Number `json:"stock"`
}

type DeleteProduct struct {
	ProductID int `json:"product_id"`
}

// Order Commands
type CartItem struct {
	ProductID int         `json:"product_id"`
	Quantity  json.Number `json:"quantity"`
}

type PlaceOrder struct {
	Customer    string     `json:"customer"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Items       []CartItem `json:"items"`
}

type UpdateOrderStatus struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
