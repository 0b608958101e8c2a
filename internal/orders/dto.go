package orders

import (
	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/pagination"
)

// CreateOrderInput carries the checkout payload. The items and totals come
// from the user's cart, never from the client.
type CreateOrderInput struct {
	UserID          uuid.UUID
	PaymentMethod   enums.PaymentMethod
	ShippingName    string
	ShippingPhone   string
	ShippingAddress string
	ShippingCity    string
	ShippingCountry string
	Notes           *string
}

// ListOrdersInput captures history pagination for one user.
type ListOrdersInput struct {
	UserID uuid.UUID
	Status *enums.OrderStatus
	Page   pagination.Params
}

// AdminListOrdersInput captures the back-office order listing inputs.
type AdminListOrdersInput struct {
	Status *enums.OrderStatus
	Page   pagination.Params
}

// OrdersPageDTO is one page of order history.
type OrdersPageDTO struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// ReorderResult reports which lines made it back into the cart.
type ReorderResult struct {
	Added   int           `json:"added"`
	Skipped []SkippedLine `json:"skipped,omitempty"`
}

// SkippedLine names an order line that could not be re-added to the cart.
type SkippedLine struct {
	BookID uuid.UUID `json:"book_id"`
	Title  string    `json:"title"`
	Reason string    `json:"reason"`
}
