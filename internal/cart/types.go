package cart

import (
	"github.com/google/uuid"
)

// Line is one cart entry enriched with the current catalog snapshot.
// UnitPriceCents reflects the live display price, not a checkout snapshot.
type Line struct {
	BookID         uuid.UUID `json:"book_id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	ImageURL       *string   `json:"image_url,omitempty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
	Available      int       `json:"available"`
	IsActive       bool      `json:"is_active"`
}

// Totals aggregates the money view of a cart.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TotalCents    int64 `json:"total_cents"`
	ItemCount     int   `json:"item_count"`
}

// CartDTO is the full cart view returned to clients.
type CartDTO struct {
	Items  []Line `json:"items"`
	Totals Totals `json:"totals"`
}
