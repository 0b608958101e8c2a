package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem captures one order line. Title, author and unit price are
// snapshots taken at checkout; later catalog edits never touch them.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	BookID         uuid.UUID `gorm:"column:book_id;type:uuid;not null"`
	Title          string    `gorm:"column:title;not null"`
	Author         string    `gorm:"column:author;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	LineTotalCents int64     `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
