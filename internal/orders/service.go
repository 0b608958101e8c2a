package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

const orderNumberAttempts = 3

// errOrderNumberTaken aborts the checkout transaction so a fresh one can be
// started with a new number. A failed INSERT poisons the transaction on
// Postgres, so the retry cannot run inside it.
var errOrderNumberTaken = errors.New("order number already taken")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines checkout and order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (OrdersPageDTO, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	Reorder(ctx context.Context, userID, orderID uuid.UUID) (ReorderResult, error)

	AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AdminListOrders(ctx context.Context, input AdminListOrdersInput) (OrdersPageDTO, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	carts    *cart.Repository
	books    *catalog.Repository
	userCart cart.Service
	store    config.StoreConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, carts *cart.Repository, books *catalog.Repository, userCart cart.Service, store config.StoreConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if userCart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		carts:    carts,
		books:    books,
		userCart: userCart,
		store:    store,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// CreateOrder turns the user's cart into an order atomically: every line's
// stock is decremented with a guarded update, prices are snapshotted, and
// the cart is cleared. Any failure rolls the whole checkout back. An order
// number collision rolls back too and the whole checkout is retried with a
// fresh number.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var created *models.Order
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		created, err = s.checkout(ctx, input)
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
	}
	if errors.Is(err, errOrderNumberTaken) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) checkout(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		bookRepo := s.books.WithTx(tx)
		orderRepo := s.repo.WithTx(tx)

		items, err := cartRepo.ListItems(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		lines := make([]cart.Line, 0, len(items))
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			book := item.Book
			if book == nil {
				return pkgerrors.New(pkgerrors.CodeBookNotFound, "a cart item no longer exists").
					WithDetails(map[string]any{"book_id": item.BookID})
			}
			if !book.IsActive {
				return pkgerrors.New(pkgerrors.CodeBookInactive, "a cart item is no longer for sale").
					WithDetails(map[string]any{"book_id": book.ID, "title": book.Title})
			}

			reserved, err := bookRepo.AdjustStock(ctx, book.ID, -item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !reserved {
				// The preloaded quantity can be stale by the time the
				// guarded decrement fails; report what the row holds now.
				available := book.StockQuantity
				if fresh, ferr := bookRepo.FindBookByID(ctx, book.ID); ferr == nil {
					available = fresh.StockQuantity
				}
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock to complete checkout").
					WithDetails(map[string]any{
						"book_id":   book.ID,
						"title":     book.Title,
						"requested": item.Quantity,
						"available": available,
					})
			}

			lines = append(lines, cart.BuildLine(book, item.Quantity))
			unit := book.DisplayPriceCents()
			orderItems = append(orderItems, models.OrderItem{
				ID:             uuid.New(),
				BookID:         book.ID,
				Title:          book.Title,
				Author:         book.Author,
				UnitPriceCents: unit,
				Quantity:       item.Quantity,
				LineTotalCents: unit * int64(item.Quantity),
			})
		}

		totals := cart.ComputeTotals(lines, s.store)

		order := &models.Order{
			ID:              uuid.New(),
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   input.PaymentMethod,
			ShippingName:    strings.TrimSpace(input.ShippingName),
			ShippingPhone:   strings.TrimSpace(input.ShippingPhone),
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
			ShippingCity:    strings.TrimSpace(input.ShippingCity),
			ShippingCountry: strings.TrimSpace(input.ShippingCountry),
			Notes:           input.Notes,
			SubtotalCents:   totals.SubtotalCents,
			TaxCents:        totals.TaxCents,
			ShippingCents:   totals.ShippingCents,
			TotalCents:      totals.TotalCents,
			Items:           orderItems,
		}

		number, err := GenerateOrderNumber(s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order.OrderNumber = number
		created, err = orderRepo.CreateOrder(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return errOrderNumberTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := cartRepo.DeleteAll(ctx, input.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrder returns the order when it belongs to the user. Orders owned by
// someone else are indistinguishable from missing ones.
func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ListOrders returns one page of the user's order history.
func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (OrdersPageDTO, error) {
	if input.UserID == uuid.Nil {
		return OrdersPageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByUser(ctx, input)
	if err != nil {
		return OrdersPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

// CancelOrder cancels a pending order and restores its stock in one
// transaction. Orders past pending cannot be cancelled by the customer.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return s.cancelLocked(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, orderID)
}

// Reorder pushes a past order's lines back into the cart at current prices.
// Lines that no longer fit (gone, inactive, stock, cap) are skipped.
func (s *service) Reorder(ctx context.Context, userID, orderID uuid.UUID) (ReorderResult, error) {
	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return ReorderResult{}, err
	}

	result := ReorderResult{}
	var skippedErrs error
	for _, item := range order.Items {
		if _, err := s.userCart.AddItem(ctx, userID, item.BookID, item.Quantity); err != nil {
			result.Skipped = append(result.Skipped, SkippedLine{
				BookID: item.BookID,
				Title:  item.Title,
				Reason: err.Error(),
			})
			skippedErrs = multierr.Append(skippedErrs, fmt.Errorf("book %s: %w", item.BookID, err))
			continue
		}
		result.Added++
	}
	if skippedErrs != nil {
		s.logg.Warn(
			s.logg.WithFields(ctx, map[string]any{
				"user_id":  userID,
				"order_id": orderID,
				"skipped":  len(result.Skipped),
				"reasons":  errorMessages(skippedErrs),
			}),
			"some order lines were not re-added to the cart",
		)
	}
	return result, nil
}

func errorMessages(aggregate error) []string {
	errs := multierr.Errors(aggregate)
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// AdminGetOrder returns any order without owner scoping.
func (s *service) AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, orderID)
}

// AdminListOrders pages through all orders, optionally filtered by status.
func (s *service) AdminListOrders(ctx context.Context, input AdminListOrdersInput) (OrdersPageDTO, error) {
	page, err := s.repo.ListAll(ctx, input)
	if err != nil {
		return OrdersPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

// AdminUpdateStatus moves an order along the lifecycle. Cancelling through
// this path also restores stock, same as a customer cancellation.
func (s *service) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if target == enums.OrderStatusCancelled {
			return s.cancelLocked(ctx, tx, order)
		}

		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": target})
		}
		return orderRepo.UpdateStatus(ctx, order.ID, target, nil)
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, orderID)
}

// cancelLocked flips a locked pending order to cancelled and returns its
// stock. Callers hold the row lock through tx.
func (s *service) cancelLocked(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if !order.Status.IsCancellable() {
		return pkgerrors.New(pkgerrors.CodeOrderNotCancelable, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	orderRepo := s.repo.WithTx(tx)
	bookRepo := s.books.WithTx(tx)

	now := s.now().UTC()
	if err := orderRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled, &now); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	for _, item := range order.Items {
		if _, err := bookRepo.AdjustStock(ctx, item.BookID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	required := map[string]string{
		"shipping name":    input.ShippingName,
		"shipping phone":   input.ShippingPhone,
		"shipping address": input.ShippingAddress,
		"shipping city":    input.ShippingCity,
		"shipping country": input.ShippingCountry,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}
	return nil
}
