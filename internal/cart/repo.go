package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
)

// Repository encapsulates cart_items persistence for authenticated users.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository clone bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindItem returns the user's cart row for a book, or gorm.ErrRecordNotFound.
func (r *Repository) FindItem(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&item).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUpdate locks the cart row for the duration of the transaction.
func (r *Repository) FindItemForUpdate(ctx context.Context, userID, bookID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := db.LockForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&item).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns the user's cart rows with books preloaded, oldest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).
		Error
	return items, err
}

// CreateItem inserts a new cart row.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateQuantity sets the quantity on an existing cart row.
func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).
		Error
}

// DeleteItem removes the user's cart row for a book; missing rows are a no-op.
func (r *Repository) DeleteItem(ctx context.Context, userID, bookID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.CartItem{}).
		Error
}

// DeleteAll clears every cart row for the user.
func (r *Repository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).
		Error
}

// CountItems sums the quantities across the user's cart.
func (r *Repository) CountItems(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).
		Error
	return int(total), err
}
