package query

import (
	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/shopspring/decimal"
)

// StockLine is a compact view of one product's stock level.
type StockLine struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Unit      string `json:"unit"`
}

type CategoryStock struct {
	Category string `json:"category"`
	Products int    `json:"products"`
	Stock    int    `json:"stock"`
}

// OrderLine is the row shown in logistics lists.
type OrderLine struct {
	ID          string          `json:"id"`
	Customer    string          `json:"customer"`
	Source      string          `json:"source,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Summary     string          `json:"summary"`
	Total       decimal.Decimal `json:"total"`
	Status      order.Status    `json:"status"`
}

type FarmerSummary struct {
	Products      int             `json:"products"`
	TotalStock    int             `json:"total_stock"`
	LowStock      []StockLine     `json:"low_stock"`
	Categories    []CategoryStock `json:"categories"`
	OpenOrders    int             `json:"open_orders"`
	Revenue       decimal.Decimal `json:"revenue"`
	LowStockBelow int             `json:"low_stock_below"`
}

type PGSummary struct {
	Orders     int             `json:"orders"`
	Active     int             `json:"active"`
	Delivered  int             `json:"delivered"`
	Cancelled  int             `json:"cancelled"`
	TotalSpend decimal.Decimal `json:"total_spend"`
	Latest     *order.Order    `json:"latest,omitempty"`
}

type MiddlemanSummary struct {
	AwaitingDispatch []OrderLine `json:"awaiting_dispatch"`
	InTransit        []OrderLine `json:"in_transit"`
	Delivered        int         `json:"delivered"`
	Cancelled        int         `json:"cancelled"`
}

// Dashboard holds exactly one of the per-role summaries.
type Dashboard struct {
	Role      domain.Role       `json:"role"`
	Name      string            `json:"name,omitempty"`
	Farmer    *FarmerSummary    `json:"farmer,omitempty"`
	PG        *PGSummary        `json:"pg,omitempty"`
	Middleman *MiddlemanSummary `json:"middleman,omitempty"`
}

func newOrderLine(o order.Order) OrderLine {
	return OrderLine{
		ID:          o.ID,
		Customer:    o.Customer,
		Source:      o.Source,
		Destination: o.Destination,
		Summary:     o.Summary,
		Total:       o.Total,
		Status:      o.Status,
	}
}
