package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/pagination"
)

// Repository encapsulates catalog persistence for books and categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
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

// FindBookByID fetches a book with its category preloaded.
func (r *Repository) FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&book, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindBooksByIDs returns books matching the provided IDs in no particular order.
func (r *Repository) FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []models.Book
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&books).
		Error
	return books, err
}

// ListBooks returns one cursor page of books matching the filter.
func (r *Repository) ListBooks(ctx context.Context, filter ListBooksFilter) (BooksPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Page.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Page.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(filter.Page.Cursor))
	if err != nil {
		return BooksPageDTO{}, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Preload("Category")

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	} else if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		query = query.Where("category_id IN (SELECT id FROM categories WHERE slug = ?)", slug)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern)
	}
	if filter.MinPriceCents != nil {
		query = query.Where("COALESCE(discount_price_cents, price_cents) >= ?", *filter.MinPriceCents)
	}
	if filter.MaxPriceCents != nil {
		query = query.Where("COALESCE(discount_price_cents, price_cents) <= ?", *filter.MaxPriceCents)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}
	if filter.InStockOnly {
		query = query.Where("stock_quantity > 0")
	}

	// Cursor pagination is keyed on (created_at, id) and only applies to the
	// newest-first ordering; other sorts are offset-free single pages.
	switch filter.Sort {
	case BookSortPriceAsc:
		query = query.Order("COALESCE(discount_price_cents, price_cents) ASC, id ASC")
	case BookSortPriceDesc:
		query = query.Order("COALESCE(discount_price_cents, price_cents) DESC, id DESC")
	case BookSortTitle:
		query = query.Order("title ASC, id ASC")
	default:
		if decodedCursor != nil {
			query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
				decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
		}
		query = query.Order("created_at DESC, id DESC")
	}

	var books []models.Book
	if err := query.Limit(limitWithBuffer).Find(&books).Error; err != nil {
		return BooksPageDTO{}, err
	}

	nextCursor := ""
	if len(books) > normalizedLimit {
		books = books[:normalizedLimit]
		last := books[len(books)-1]
		if filter.Sort == "" || filter.Sort == BookSortNewest {
			nextCursor = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
		}
	}

	return BooksPageDTO{Books: books, NextCursor: nextCursor}, nil
}

// CreateBook inserts a new book row.
func (r *Repository) CreateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// UpdateBook saves an existing book row.
func (r *Repository) UpdateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// DeactivateBook hides a book from the storefront without deleting history.
func (r *Repository) DeactivateBook(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Update("is_active", false).
		Error
}

// AdjustStock applies a signed stock delta. Decrements are guarded so the
// quantity never goes negative; the bool reports whether the row changed.
func (r *Repository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id)
	if delta < 0 {
		query = query.Where("stock_quantity >= ?", -delta)
	}
	result := query.Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListCategories returns every category ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categories).
		Error
	return categories, err
}

// FindCategoryByID fetches a single category row.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindCategoryBySlug fetches a category by its URL slug.
func (r *Repository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory inserts a new category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory saves an existing category row.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category; fails on FK violation when books remain.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Category{}).
		Error
}

// CountBooksInCategory reports how many books reference the category.
func (r *Repository) CountBooksInCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("category_id = ?", id).
		Count(&count).
		Error
	return count, err
}
