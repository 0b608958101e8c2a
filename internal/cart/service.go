package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookLoader interface {
	FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindBooksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
}

// Service exposes cart operations for authenticated users. Writes are
// serialized per (user, book) row via transactional row locks, so two
// concurrent adds of the same book never lose an update.
type Service interface {
	AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (CartDTO, error)
	UpdateItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (CartDTO, error)
	RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	GetItemCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type service struct {
	repo  *Repository
	tx    txRunner
	books bookLoader
	store config.StoreConfig
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, books bookLoader, store config.StoreConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		books: books,
		store: store,
	}, nil
}

// AddItem increments the user's cart line for a book, creating it if absent.
// Two concurrent first-adds of the same pair both race past the row lock;
// the loser's INSERT hits the (user, book) unique index and is retried so
// both quantities land.
func (s *service) AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (CartDTO, error) {
	if err := requireIDs(userID, bookID); err != nil {
		return CartDTO{}, err
	}

	err := s.addItemTx(ctx, userID, bookID, qty)
	if db.IsUniqueViolation(err) {
		// The row exists now, so a second pass locks it and merges.
		err = s.addItemTx(ctx, userID, bookID, qty)
	}
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return CartDTO{}, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) addItemTx(ctx context.Context, userID, bookID uuid.UUID, qty int) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		book, err := s.loadBook(ctx, bookID)
		if err != nil {
			return err
		}

		current := 0
		existing, err := repo.FindItemForUpdate(ctx, userID, bookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if existing != nil {
			current = existing.Quantity
		}

		if err := CheckAdd(book, current, qty, s.store.MaxQuantityPerItem); err != nil {
			return err
		}

		// Driver errors stay unwrapped here so the caller can spot the
		// unique violation and rerun the transaction.
		if existing == nil {
			return repo.CreateItem(ctx, &models.CartItem{
				ID:       uuid.New(),
				UserID:   userID,
				BookID:   bookID,
				Quantity: qty,
			})
		}
		return repo.UpdateQuantity(ctx, existing.ID, current+qty)
	})
}

// UpdateItem sets the line's quantity outright. Zero or negative quantities
// remove the line.
func (s *service) UpdateItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (CartDTO, error) {
	if err := requireIDs(userID, bookID); err != nil {
		return CartDTO{}, err
	}
	if qty <= 0 {
		return s.RemoveItem(ctx, userID, bookID)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		book, err := s.loadBook(ctx, bookID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemForUpdate(ctx, userID, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeCartItemNotFound, "book is not in the cart")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if err := CheckSet(book, existing.Quantity, qty, s.store.MaxQuantityPerItem); err != nil {
			return err
		}
		if err := repo.UpdateQuantity(ctx, existing.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return nil
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem drops the line if present; removing an absent line succeeds.
func (s *service) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (CartDTO, error) {
	if err := requireIDs(userID, bookID); err != nil {
		return CartDTO{}, err
	}
	if err := s.repo.DeleteItem(ctx, userID, bookID); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the user's cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.DeleteAll(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// GetCart returns the cart view with live prices and computed totals.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		if item.Book == nil {
			continue
		}
		lines = append(lines, BuildLine(item.Book, item.Quantity))
	}
	return CartDTO{
		Items:  lines,
		Totals: ComputeTotals(lines, s.store),
	}, nil
}

// GetItemCount sums the quantities in the user's cart for the header badge.
func (s *service) GetItemCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	count, err := s.repo.CountItems(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return count, nil
}

func (s *service) loadBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	book, err := s.books.FindBookByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBookNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

func requireIDs(userID, bookID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	return nil
}
