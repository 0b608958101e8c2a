package cart

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{
		TaxRatePercent:        10,
		FreeShippingThreshold: 299000,
		ShippingFlatFee:       30000,
		MaxQuantityPerItem:    10,
	}
}

func activeBook(stock int) *models.Book {
	return &models.Book{
		ID:            uuid.New(),
		Title:         "The Go Programming Language",
		Author:        "Donovan & Kernighan",
		PriceCents:    125000,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func TestCheckAddRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	err := CheckAdd(activeBook(5), 0, 0, 10)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckAddInactiveBook(t *testing.T) {
	t.Parallel()

	book := activeBook(5)
	book.IsActive = false

	err := CheckAdd(book, 0, 1, 10)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeBookInactive {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckAddOutOfStock(t *testing.T) {
	t.Parallel()

	err := CheckAdd(activeBook(0), 0, 1, 10)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckAddQuantityLimit(t *testing.T) {
	t.Parallel()

	book := activeBook(50)

	if err := CheckAdd(book, 9, 1, 10); err != nil {
		t.Fatalf("expected add to reach the cap exactly: %v", err)
	}

	err := CheckAdd(book, 10, 1, 10)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeQuantityLimit {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	if details["limit"] != 10 || details["current_in_cart"] != 10 {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestCheckAddInsufficientStockDetails(t *testing.T) {
	t.Parallel()

	book := activeBook(3)

	err := CheckAdd(book, 2, 2, 10)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	if details["available"] != 3 || details["current_in_cart"] != 2 {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestCheckSetReplacesRatherThanIncrements(t *testing.T) {
	t.Parallel()

	book := activeBook(4)

	// Setting to 4 from a current quantity of 3 is fine even though an
	// increment of 4 would not be.
	if err := CheckSet(book, 3, 4, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckSet(book, 3, 5, 10); err == nil {
		t.Fatal("expected insufficient stock")
	}
}

func TestComputeTotalsWorkedExample(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{UnitPriceCents: 100000, Quantity: 2, LineTotalCents: 200000},
		{UnitPriceCents: 50000, Quantity: 1, LineTotalCents: 50000},
	}

	totals := ComputeTotals(lines, testStoreConfig())
	if totals.SubtotalCents != 250000 {
		t.Fatalf("subtotal = %d", totals.SubtotalCents)
	}
	if totals.TaxCents != 25000 {
		t.Fatalf("tax = %d", totals.TaxCents)
	}
	if totals.ShippingCents != 30000 {
		t.Fatalf("shipping = %d", totals.ShippingCents)
	}
	if totals.TotalCents != 305000 {
		t.Fatalf("total = %d", totals.TotalCents)
	}
	if totals.ItemCount != 3 {
		t.Fatalf("item count = %d", totals.ItemCount)
	}
}

func TestComputeTotalsFreeShippingAtThreshold(t *testing.T) {
	t.Parallel()

	lines := []Line{{UnitPriceCents: 299000, Quantity: 1, LineTotalCents: 299000}}

	totals := ComputeTotals(lines, testStoreConfig())
	if totals.ShippingCents != 0 {
		t.Fatalf("expected free shipping at threshold, got %d", totals.ShippingCents)
	}
	if totals.TotalCents != 299000+29900 {
		t.Fatalf("total = %d", totals.TotalCents)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals(nil, testStoreConfig())
	if totals != (Totals{}) {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestBuildLineUsesDiscountPrice(t *testing.T) {
	t.Parallel()

	discount := int64(90000)
	book := activeBook(5)
	book.DiscountPriceCents = &discount

	line := BuildLine(book, 2)
	if line.UnitPriceCents != 90000 {
		t.Fatalf("unit price = %d", line.UnitPriceCents)
	}
	if line.LineTotalCents != 180000 {
		t.Fatalf("line total = %d", line.LineTotalCents)
	}
}
