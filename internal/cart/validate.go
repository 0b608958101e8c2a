package cart

import (
	"github.com/shopspring/decimal"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

// CheckAdd validates incrementing a cart line by addQty on top of currentQty.
// Stock is checked, not reserved; the same book can sit in many carts.
func CheckAdd(book *models.Book, currentQty, addQty, maxPerItem int) error {
	if addQty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !book.IsActive {
		return pkgerrors.New(pkgerrors.CodeBookInactive, "book is not available for sale")
	}
	if book.StockQuantity == 0 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "book is out of stock").
			WithDetails(map[string]any{"book_id": book.ID})
	}
	return checkTarget(book, currentQty, currentQty+addQty, maxPerItem)
}

// CheckSet validates replacing a cart line's quantity outright. Zero and
// negative targets are handled by the caller as removals.
func CheckSet(book *models.Book, currentQty, targetQty, maxPerItem int) error {
	if targetQty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !book.IsActive {
		return pkgerrors.New(pkgerrors.CodeBookInactive, "book is not available for sale")
	}
	return checkTarget(book, currentQty, targetQty, maxPerItem)
}

func checkTarget(book *models.Book, currentQty, targetQty, maxPerItem int) error {
	if maxPerItem > 0 && targetQty > maxPerItem {
		return pkgerrors.New(pkgerrors.CodeQuantityLimit, "quantity limit exceeded for this book").
			WithDetails(map[string]any{
				"book_id":         book.ID,
				"limit":           maxPerItem,
				"current_in_cart": currentQty,
			})
	}
	if targetQty > book.StockQuantity {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock available").
			WithDetails(map[string]any{
				"book_id":         book.ID,
				"available":       book.StockQuantity,
				"current_in_cart": currentQty,
			})
	}
	return nil
}

// ComputeTotals derives the money view from cart lines. Tax applies to the
// subtotal; shipping is waived once the subtotal reaches the free threshold.
// An empty cart has all-zero totals, including shipping.
func ComputeTotals(lines []Line, store config.StoreConfig) Totals {
	var subtotal int64
	var count int
	for _, line := range lines {
		subtotal += line.LineTotalCents
		count += line.Quantity
	}
	if count == 0 {
		return Totals{}
	}

	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(store.TaxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	var shipping int64
	if subtotal < store.FreeShippingThreshold {
		shipping = store.ShippingFlatFee
	}

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: shipping,
		TotalCents:    subtotal + tax + shipping,
		ItemCount:     count,
	}
}

// BuildLine assembles a cart line from the live catalog row.
func BuildLine(book *models.Book, qty int) Line {
	unit := book.DisplayPriceCents()
	return Line{
		BookID:         book.ID,
		Title:          book.Title,
		Author:         book.Author,
		ImageURL:       book.ImageURL,
		UnitPriceCents: unit,
		Quantity:       qty,
		LineTotalCents: unit * int64(qty),
		Available:      book.StockQuantity,
		IsActive:       book.IsActive,
	}
}
