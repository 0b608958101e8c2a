package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
)

// Order is the immutable record created at checkout. Totals and line items
// are snapshots; only Status moves after creation.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`

	ShippingName    string  `gorm:"column:shipping_name;not null"`
	ShippingPhone   string  `gorm:"column:shipping_phone;not null"`
	ShippingAddress string  `gorm:"column:shipping_address;not null"`
	ShippingCity    string  `gorm:"column:shipping_city;not null"`
	ShippingCountry string  `gorm:"column:shipping_country;not null"`
	Notes           *string `gorm:"column:notes"`

	SubtotalCents int64 `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64 `gorm:"column:tax_cents;not null"`
	ShippingCents int64 `gorm:"column:shipping_cents;not null"`
	TotalCents    int64 `gorm:"column:total_cents;not null"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
}
