package orders

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/migrate"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type orderTestEnv struct {
	conn  *gorm.DB
	svc   Service
	carts cart.Service
}

func newOrderTestEnv(t *testing.T) orderTestEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.RunSQLite(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	store := testStoreConfig()
	books := catalog.NewRepository(conn)
	carts, err := cart.NewService(cart.NewRepository(conn), gormTxRunner{db: conn}, books, store)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), gormTxRunner{db: conn}, cart.NewRepository(conn), books, carts, store, testOrderLogger())
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return orderTestEnv{conn: conn, svc: svc, carts: carts}
}

func testOrderLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{
		TaxRatePercent:        10,
		FreeShippingThreshold: 299000,
		ShippingFlatFee:       30000,
		MaxQuantityPerItem:    10,
	}
}

func (e orderTestEnv) seedBook(t *testing.T, priceCents int64, stock int) *models.Book {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: "cat-" + uuid.NewString(), Slug: "slug-" + uuid.NewString()}
	if err := e.conn.Create(category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	book := &models.Book{
		ID:            uuid.New(),
		CategoryID:    category.ID,
		Title:         "Seeded Title",
		Author:        "Seeded Author",
		PriceCents:    priceCents,
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := e.conn.Create(book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func (e orderTestEnv) stockOf(t *testing.T, bookID uuid.UUID) int {
	t.Helper()

	var book models.Book
	if err := e.conn.First(&book, "id = ?", bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	return book.StockQuantity
}

func checkoutInput(userID uuid.UUID) CreateOrderInput {
	return CreateOrderInput{
		UserID:          userID,
		PaymentMethod:   enums.PaymentMethodCashOnDelivery,
		ShippingName:    "Nguyen Van A",
		ShippingPhone:   "+84901234567",
		ShippingAddress: "12 Ly Thuong Kiet",
		ShippingCity:    "Hanoi",
		ShippingCountry: "Vietnam",
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newOrderTestEnv(t)

	_, err := env.svc.CreateOrder(context.Background(), checkoutInput(uuid.New()))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected EMPTY_CART, got %v", err)
	}
}

func TestCreateOrderInvalidPaymentMethod(t *testing.T) {
	env := newOrderTestEnv(t)

	input := checkoutInput(uuid.New())
	input.PaymentMethod = enums.PaymentMethod("barter")
	_, err := env.svc.CreateOrder(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCreateOrderChecksOut(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 125000, 5)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	order, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNumber, "BS-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.SubtotalCents != 250000 || order.TaxCents != 25000 || order.ShippingCents != 30000 || order.TotalCents != 305000 {
		t.Fatalf("unexpected totals %d/%d/%d/%d",
			order.SubtotalCents, order.TaxCents, order.ShippingCents, order.TotalCents)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.BookID != book.ID || item.UnitPriceCents != 125000 || item.Quantity != 2 || item.LineTotalCents != 250000 {
		t.Fatalf("unexpected snapshot %+v", item)
	}
	if item.Title != book.Title || item.Author != book.Author {
		t.Fatalf("title and author should be snapshotted, got %+v", item)
	}

	if got := env.stockOf(t, book.ID); got != 3 {
		t.Fatalf("expected stock 3 after checkout, got %d", got)
	}
	dto, err := env.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("cart should be empty after checkout, got %d lines", len(dto.Items))
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	plenty := env.seedBook(t, 100000, 10)
	scarce := env.seedBook(t, 80000, 5)

	if _, err := env.carts.AddItem(ctx, userID, plenty.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	if _, err := env.carts.AddItem(ctx, userID, scarce.ID, 3); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	// Stock drops between adding to cart and checking out.
	if err := env.conn.Model(&models.Book{}).Where("id = ?", scarce.ID).
		Update("stock_quantity", 1).Error; err != nil {
		t.Fatalf("shrink stock: %v", err)
	}

	_, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if got := typed.Details().(map[string]any)["available"]; got != 1 {
		t.Fatalf("reported availability should match the row, got %v", got)
	}

	if got := env.stockOf(t, plenty.ID); got != 10 {
		t.Fatalf("rollback should restore the first line's stock, got %d", got)
	}
	dto, err := env.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 2 {
		t.Fatalf("cart should survive a failed checkout, got %d lines", len(dto.Items))
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	book := env.seedBook(t, 50000, 4)

	if _, err := env.carts.AddItem(ctx, owner, book.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := env.svc.CreateOrder(ctx, checkoutInput(owner))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := env.svc.GetOrder(ctx, owner, order.ID); err != nil {
		t.Fatalf("owner should see the order: %v", err)
	}
	_, err = env.svc.GetOrder(ctx, uuid.New(), order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("someone else's order must look missing, got %v", err)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 90000, 6)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 4); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if got := env.stockOf(t, book.ID); got != 2 {
		t.Fatalf("expected stock 2 after checkout, got %d", got)
	}

	cancelled, err := env.svc.CancelOrder(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("cancelled_at should be set")
	}
	if got := env.stockOf(t, book.ID); got != 6 {
		t.Fatalf("cancellation should restore stock to 6, got %d", got)
	}
}

func TestCancelOrderRejectsNonPending(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 90000, 6)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := env.svc.AdminUpdateStatus(ctx, order.ID, enums.OrderStatusProcessing); err != nil {
		t.Fatalf("AdminUpdateStatus: %v", err)
	}

	_, err = env.svc.CancelOrder(ctx, userID, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOrderNotCancelable {
		t.Fatalf("expected ORDER_NOT_CANCELLABLE, got %v", err)
	}
	if got := env.stockOf(t, book.ID); got != 5 {
		t.Fatalf("stock must not change on a rejected cancel, got %d", got)
	}
}

func TestAdminUpdateStatusTransitions(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 45000, 3)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	updated, err := env.svc.AdminUpdateStatus(ctx, order.ID, enums.OrderStatusProcessing)
	if err != nil {
		t.Fatalf("pending to processing should work: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}

	_, err = env.svc.AdminUpdateStatus(ctx, order.ID, enums.OrderStatusDelivered)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("processing to delivered must be rejected, got %v", err)
	}

	_, err = env.svc.AdminUpdateStatus(ctx, order.ID, enums.OrderStatus("lost"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for unknown status, got %v", err)
	}
}

func TestAdminCancelRestoresStock(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 60000, 8)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	cancelled, err := env.svc.AdminUpdateStatus(ctx, order.ID, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("AdminUpdateStatus cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if got := env.stockOf(t, book.ID); got != 8 {
		t.Fatalf("admin cancel should restore stock, got %d", got)
	}
}

func TestReorderSkipsUnavailableLines(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	keep := env.seedBook(t, 70000, 10)
	gone := env.seedBook(t, 55000, 10)

	if _, err := env.carts.AddItem(ctx, userID, keep.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	if _, err := env.carts.AddItem(ctx, userID, gone.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := env.svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := env.conn.Model(&models.Book{}).Where("id = ?", gone.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate book: %v", err)
	}

	result, err := env.svc.Reorder(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if result.Added != 1 {
		t.Fatalf("expected 1 added, got %d", result.Added)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].BookID != gone.ID || result.Skipped[0].Reason == "" {
		t.Fatalf("expected the inactive book to be skipped with a reason, got %+v", result.Skipped)
	}

	dto, err := env.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].BookID != keep.ID {
		t.Fatalf("cart should hold the surviving line, got %+v", dto.Items)
	}
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 40000, 20)

	for i := 0; i < 2; i++ {
		if _, err := env.carts.AddItem(ctx, userID, book.ID, 1); err != nil {
			t.Fatalf("seed cart: %v", err)
		}
		if _, err := env.svc.CreateOrder(ctx, checkoutInput(userID)); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	orders, err := env.svc.ListOrders(ctx, ListOrdersInput{UserID: userID})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders.Orders))
	}

	if _, err := env.svc.CancelOrder(ctx, userID, orders.Orders[0].ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	cancelledStatus := enums.OrderStatusCancelled
	filtered, err := env.svc.ListOrders(ctx, ListOrdersInput{UserID: userID, Status: &cancelledStatus})
	if err != nil {
		t.Fatalf("ListOrders filtered: %v", err)
	}
	if len(filtered.Orders) != 1 {
		t.Fatalf("expected 1 cancelled order, got %d", len(filtered.Orders))
	}
}

// collidingOrderRepo fails CreateOrder with a duplicate-key error until the
// counter runs out, standing in for an order number already on disk.
type collidingOrderRepo struct {
	Repository
	remaining *int
}

func (r collidingOrderRepo) WithTx(tx *gorm.DB) Repository {
	return collidingOrderRepo{Repository: r.Repository.WithTx(tx), remaining: r.remaining}
}

func (r collidingOrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if *r.remaining > 0 {
		*r.remaining--
		return nil, errors.New(`duplicate key value violates unique constraint "idx_orders_order_number"`)
	}
	return r.Repository.CreateOrder(ctx, order)
}

func newCollidingEnv(t *testing.T, collisions int) (orderTestEnv, Service) {
	t.Helper()

	env := newOrderTestEnv(t)
	repo := collidingOrderRepo{Repository: NewRepository(env.conn), remaining: &collisions}
	svc, err := NewService(repo, gormTxRunner{db: env.conn}, cart.NewRepository(env.conn),
		catalog.NewRepository(env.conn), env.carts, testStoreConfig(), testOrderLogger())
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return env, svc
}

func TestCreateOrderRetriesNumberCollision(t *testing.T) {
	env, svc := newCollidingEnv(t, 1)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 100000, 5)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	order, err := svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder should survive one collision: %v", err)
	}
	if order.OrderNumber == "" {
		t.Fatal("expected an order number")
	}

	// The colliding attempt must roll back fully before the retry, so the
	// decrement lands exactly once.
	if got := env.stockOf(t, book.ID); got != 3 {
		t.Fatalf("expected stock 3 after one checkout, got %d", got)
	}
	dto, err := env.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("cart should be empty after checkout, got %d lines", len(dto.Items))
	}
}

func TestCreateOrderNumberCollisionExhausted(t *testing.T) {
	env, svc := newCollidingEnv(t, orderNumberAttempts)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 100000, 5)

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 2); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	_, err := svc.CreateOrder(ctx, checkoutInput(userID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR after exhausted retries, got %v", err)
	}

	if got := env.stockOf(t, book.ID); got != 5 {
		t.Fatalf("failed checkout must not consume stock, got %d", got)
	}
	dto, err := env.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("cart should survive a failed checkout, got %d lines", len(dto.Items))
	}
}

func TestReorderLogsSkippedReasons(t *testing.T) {
	env := newOrderTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	book := env.seedBook(t, 70000, 10)

	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	svc, err := NewService(NewRepository(env.conn), gormTxRunner{db: env.conn}, cart.NewRepository(env.conn),
		catalog.NewRepository(env.conn), env.carts, testStoreConfig(), logg)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}

	if _, err := env.carts.AddItem(ctx, userID, book.ID, 1); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	order, err := svc.CreateOrder(ctx, checkoutInput(userID))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := env.conn.Model(&models.Book{}).Where("id = ?", book.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate book: %v", err)
	}

	result, err := svc.Reorder(ctx, userID, order.ID)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped line, got %+v", result.Skipped)
	}

	logged := buf.String()
	if !strings.Contains(logged, "not re-added") {
		t.Fatalf("expected a warning about skipped lines, got %q", logged)
	}
	if !strings.Contains(logged, "book is not available for sale") {
		t.Fatalf("skip reasons should reach the log, got %q", logged)
	}
}
