package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer rating for a book; one row per (user, book).
// Reviews are hidden until an admin approves them.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_user_book"`
	BookID     uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:idx_reviews_user_book"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    *string   `gorm:"column:comment"`
	IsApproved bool      `gorm:"column:is_approved;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
