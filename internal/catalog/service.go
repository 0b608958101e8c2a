package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

// Service exposes catalog browse and admin management operations.
type Service interface {
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListBooks(ctx context.Context, filter ListBooksFilter) (BooksPageDTO, error)
	CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error)
	DeactivateBook(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Book, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// GetBook returns a storefront-visible book.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	book, err := s.repo.FindBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBookNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

// ListBooks returns one page of storefront results.
func (s *service) ListBooks(ctx context.Context, filter ListBooksFilter) (BooksPageDTO, error) {
	if filter.MinPriceCents != nil && *filter.MinPriceCents < 0 {
		return BooksPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "min price must be non-negative")
	}
	if filter.MaxPriceCents != nil && *filter.MaxPriceCents < 0 {
		return BooksPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "max price must be non-negative")
	}
	if filter.MinPriceCents != nil && filter.MaxPriceCents != nil && *filter.MinPriceCents > *filter.MaxPriceCents {
		return BooksPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "min price exceeds max price")
	}
	page, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return BooksPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}
	return page, nil
}

// CreateBook inserts a new listing after validating its category.
func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Author) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author is required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be non-negative")
	}
	if err := validateDiscount(input.PriceCents, input.DiscountPriceCents); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	book := &models.Book{
		ID:                 uuid.New(),
		CategoryID:         input.CategoryID,
		Title:              strings.TrimSpace(input.Title),
		Author:             strings.TrimSpace(input.Author),
		ISBN:               input.ISBN,
		Description:        input.Description,
		PriceCents:         input.PriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		StockQuantity:      input.StockQuantity,
		IsActive:           true,
		IsFeatured:         input.IsFeatured,
		ImageURL:           input.ImageURL,
		GalleryImageURLs:   input.GalleryImageURLs,
	}
	created, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "book already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}
	return created, nil
}

// UpdateBook applies the partial update and returns the fresh row.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		book.CategoryID = *input.CategoryID
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		if strings.TrimSpace(*input.Author) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "author cannot be empty")
		}
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.ISBN != nil {
		book.ISBN = input.ISBN
	}
	if input.Description != nil {
		book.Description = input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		book.PriceCents = *input.PriceCents
	}
	if input.ClearDiscount {
		book.DiscountPriceCents = nil
	} else if input.DiscountPriceCents != nil {
		book.DiscountPriceCents = input.DiscountPriceCents
	}
	if err := validateDiscount(book.PriceCents, book.DiscountPriceCents); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		book.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		book.IsFeatured = *input.IsFeatured
	}
	if input.ImageURL != nil {
		book.ImageURL = input.ImageURL
	}
	if input.GalleryImageURLs != nil {
		book.GalleryImageURLs = input.GalleryImageURLs
	}

	updated, err := s.repo.UpdateBook(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update book")
	}
	return updated, nil
}

// DeactivateBook hides the listing from the storefront.
func (s *service) DeactivateBook(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetBook(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeactivateBook(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate book")
	}
	return nil
}

// AdjustStock applies a signed delta and rejects decrements below zero.
func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Book, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta cannot be zero")
	}
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock cannot go negative").
			WithDetails(map[string]any{"book_id": id, "available": book.StockQuantity})
	}
	return s.GetBook(ctx, id)
}

// ListCategories returns all categories.
func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

// GetCategoryBySlug resolves a category for slug-based browse routes.
func (s *service) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}
	category, err := s.repo.FindCategoryBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

// CreateCategory inserts a new category.
func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(strings.ToLower(input.Slug))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug is required")
	}

	category := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: input.Description,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name or slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return created, nil
}

// UpdateCategory applies the partial update.
func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name cannot be empty")
		}
		category.Name = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		if strings.TrimSpace(*input.Slug) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug cannot be empty")
		}
		category.Slug = strings.TrimSpace(strings.ToLower(*input.Slug))
	}
	if input.Description != nil {
		category.Description = input.Description
	}

	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name or slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	return updated, nil
}

// DeleteCategory removes an empty category.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	count, err := s.repo.CountBooksInCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count category books")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has books")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func validateDiscount(priceCents int64, discount *int64) error {
	if discount == nil {
		return nil
	}
	if *discount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be positive")
	}
	if *discount >= priceCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be below the list price")
	}
	return nil
}
