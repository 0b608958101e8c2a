package catalog

import (
	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/pagination"
)

// BookSort names the supported list orderings.
type BookSort string

const (
	BookSortNewest    BookSort = "newest"
	BookSortPriceAsc  BookSort = "price_asc"
	BookSortPriceDesc BookSort = "price_desc"
	BookSortTitle     BookSort = "title"
)

// ListBooksFilter carries the catalog browse inputs.
type ListBooksFilter struct {
	CategoryID      *uuid.UUID
	CategorySlug    string
	Search          string
	MinPriceCents   *int64
	MaxPriceCents   *int64
	FeaturedOnly    bool
	InStockOnly     bool
	IncludeInactive bool
	Sort            BookSort
	Page            pagination.Params
}

// BooksPageDTO is one page of catalog results.
type BooksPageDTO struct {
	Books      []models.Book `json:"books"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// CreateBookInput captures the admin payload for a new listing.
type CreateBookInput struct {
	CategoryID         uuid.UUID
	Title              string
	Author             string
	ISBN               *string
	Description        *string
	PriceCents         int64
	DiscountPriceCents *int64
	StockQuantity      int
	IsFeatured         bool
	ImageURL           *string
	GalleryImageURLs   []string
}

// UpdateBookInput applies partial updates; nil fields are left untouched.
type UpdateBookInput struct {
	CategoryID         *uuid.UUID
	Title              *string
	Author             *string
	ISBN               *string
	Description        *string
	PriceCents         *int64
	DiscountPriceCents *int64
	ClearDiscount      bool
	IsActive           *bool
	IsFeatured         *bool
	ImageURL           *string
	GalleryImageURLs   []string
}

// CreateCategoryInput captures the admin payload for a new category.
type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description *string
}

// UpdateCategoryInput applies partial category updates.
type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
}
