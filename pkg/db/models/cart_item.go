package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one row of an authenticated user's cart. The (user, book)
// pair is unique; quantity is capped by the per-item limit at write time.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_book"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_book"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Book      *Book     `gorm:"foreignKey:BookID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
