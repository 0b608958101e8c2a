package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
	AddItem(ctx context.Context, userID, bookID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, bookID uuid.UUID) error
	MoveToCart(ctx context.Context, userID, bookID uuid.UUID) (cart.CartDTO, error)
}

type service struct {
	repo     *Repository
	books    *catalog.Repository
	userCart cart.Service
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo *Repository, books *catalog.Repository, userCart cart.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if userCart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	return &service{
		repo:     repo,
		books:    books,
		userCart: userCart,
	}, nil
}

// GetWishlist returns the user's saved books.
func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return items, nil
}

// AddItem ensures the book exists and saves it; duplicates are a no-op.
func (s *service) AddItem(ctx context.Context, userID, bookID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if _, err := s.books.FindBookByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeBookNotFound, "book not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if err := s.repo.AddItem(ctx, userID, bookID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.RemoveItem(ctx, userID, bookID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

// MoveToCart adds one copy to the cart and, on success, removes the
// wishlist entry. Cart validation failures leave the wishlist untouched.
func (s *service) MoveToCart(ctx context.Context, userID, bookID uuid.UUID) (cart.CartDTO, error) {
	if userID == uuid.Nil {
		return cart.CartDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	saved, err := s.repo.Contains(ctx, userID, bookID)
	if err != nil {
		return cart.CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist")
	}
	if !saved {
		return cart.CartDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "book is not on the wishlist")
	}

	dto, err := s.userCart.AddItem(ctx, userID, bookID, 1)
	if err != nil {
		return cart.CartDTO{}, err
	}
	if err := s.repo.RemoveItem(ctx, userID, bookID); err != nil {
		return cart.CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return dto, nil
}
