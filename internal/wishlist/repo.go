package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, bookID uuid.UUID) error {
	if userID == uuid.Nil || bookID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, user_id, book_id, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP) ON CONFLICT (user_id, book_id) DO NOTHING`, uuid.New(), userID, bookID).
		Error
}

// RemoveItem deletes the user-book entry if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.WishlistItem{}).
		Error
}

// ListItems returns the user's wishlist with books preloaded, newest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Book.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).
		Error
	return items, err
}

// Contains reports whether the book is on the user's wishlist.
func (r *Repository) Contains(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).
		Error
	return count > 0, err
}
