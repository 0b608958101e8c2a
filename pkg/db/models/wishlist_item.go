package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem is a simple (user, book) membership row.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_wishlist_items_user_book"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:idx_wishlist_items_user_book"`
	Book      *Book     `gorm:"foreignKey:BookID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
