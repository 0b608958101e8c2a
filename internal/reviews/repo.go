package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reviews repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a review row.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// FindByID fetches one review.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListApprovedByBook returns the approved reviews for a book, newest first.
func (r *Repository) ListApprovedByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND is_approved = ?", bookID, true).
		Order("created_at DESC").
		Find(&reviews).
		Error
	return reviews, err
}

// ListPending returns unapproved reviews for moderation, oldest first.
func (r *Repository) ListPending(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("is_approved = ?", false).
		Order("created_at ASC").
		Find(&reviews).
		Error
	return reviews, err
}

// Approve marks a review as publicly visible.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ? AND is_approved = ?", id, false).
		Update("is_approved", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a review row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Review{}).
		Error
}

// AverageRating returns the mean approved rating and count for a book.
func (r *Repository) AverageRating(ctx context.Context, bookID uuid.UUID) (float64, int64, error) {
	type aggregate struct {
		Avg   float64
		Count int64
	}
	var agg aggregate
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("book_id = ? AND is_approved = ?", bookID, true).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Scan(&agg).
		Error
	return agg.Avg, agg.Count, err
}

// HasDeliveredOrderWithBook reports whether the user received the book in a
// delivered order, which gates review creation.
func (r *Repository) HasDeliveredOrderWithBook(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.book_id = ?",
			userID, enums.OrderStatusDelivered, bookID).
		Count(&count).
		Error
	return count > 0, err
}
