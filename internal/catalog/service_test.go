package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/migrate"
)

func newCatalogService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.RunSQLite(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func createCategory(t *testing.T, svc Service) uuid.UUID {
	t.Helper()

	category, err := svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name: "cat-" + uuid.NewString(),
		Slug: "slug-" + uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category.ID
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func TestCreateBookPersistsActiveListing(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	book, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID:    categoryID,
		Title:         "  The Pragmatic Programmer  ",
		Author:        "Hunt and Thomas",
		PriceCents:    180000,
		StockQuantity: 12,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if book.Title != "The Pragmatic Programmer" {
		t.Fatalf("title should be trimmed, got %q", book.Title)
	}
	if !book.IsActive {
		t.Fatalf("new listings start active")
	}
	if book.ID == uuid.Nil {
		t.Fatalf("book id not assigned")
	}
}

func TestCreateBookRejectsBadDiscount(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	cases := []*int64{int64Ptr(0), int64Ptr(-100), int64Ptr(180000), int64Ptr(200000)}
	for _, discount := range cases {
		_, err := svc.CreateBook(ctx, CreateBookInput{
			CategoryID:         categoryID,
			Title:              "Discounted",
			Author:             "Author",
			PriceCents:         180000,
			DiscountPriceCents: discount,
			StockQuantity:      1,
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("discount %d should be rejected, got %v", *discount, err)
		}
	}
}

func TestCreateBookUnknownCategory(t *testing.T) {
	svc, _ := newCatalogService(t)

	_, err := svc.CreateBook(context.Background(), CreateBookInput{
		CategoryID: uuid.New(),
		Title:      "Orphan",
		Author:     "Author",
		PriceCents: 100000,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateBookClearsDiscount(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	book, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID:         categoryID,
		Title:              "On Sale",
		Author:             "Author",
		PriceCents:         150000,
		DiscountPriceCents: int64Ptr(99000),
		StockQuantity:      5,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if book.DiscountPriceCents == nil {
		t.Fatalf("discount not persisted")
	}

	updated, err := svc.UpdateBook(ctx, book.ID, UpdateBookInput{ClearDiscount: true})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if updated.DiscountPriceCents != nil {
		t.Fatalf("discount should be cleared, got %v", *updated.DiscountPriceCents)
	}

	_, err = svc.UpdateBook(ctx, book.ID, UpdateBookInput{Title: strPtr("   ")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("blank title should be rejected, got %v", err)
	}
}

func TestListBooksFilters(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	cheap, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID: categoryID, Title: "Cheap", Author: "A", PriceCents: 50000, StockQuantity: 3,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	pricey, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID: categoryID, Title: "Pricey", Author: "B", PriceCents: 250000, StockQuantity: 0,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	page, err := svc.ListBooks(ctx, ListBooksFilter{CategoryID: &categoryID, InStockOnly: true})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page.Books) != 1 || page.Books[0].ID != cheap.ID {
		t.Fatalf("in-stock filter should keep only the stocked book, got %d", len(page.Books))
	}

	page, err = svc.ListBooks(ctx, ListBooksFilter{CategoryID: &categoryID, MinPriceCents: int64Ptr(100000)})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page.Books) != 1 || page.Books[0].ID != pricey.ID {
		t.Fatalf("min price filter mismatch, got %d", len(page.Books))
	}

	page, err = svc.ListBooks(ctx, ListBooksFilter{CategoryID: &categoryID, Sort: BookSortPriceAsc})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page.Books) != 2 || page.Books[0].ID != cheap.ID {
		t.Fatalf("price_asc should list the cheap book first")
	}

	_, err = svc.ListBooks(ctx, ListBooksFilter{MinPriceCents: int64Ptr(200), MaxPriceCents: int64Ptr(100)})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("inverted price range should be rejected, got %v", err)
	}
}

func TestDeactivateBookHidesListing(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	book, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID: categoryID, Title: "Fleeting", Author: "A", PriceCents: 80000, StockQuantity: 2,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	if err := svc.DeactivateBook(ctx, book.ID); err != nil {
		t.Fatalf("DeactivateBook: %v", err)
	}

	page, err := svc.ListBooks(ctx, ListBooksFilter{CategoryID: &categoryID})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page.Books) != 0 {
		t.Fatalf("inactive books must not appear in the storefront list")
	}

	page, err = svc.ListBooks(ctx, ListBooksFilter{CategoryID: &categoryID, IncludeInactive: true})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page.Books) != 1 {
		t.Fatalf("admin listing should still see the book")
	}
}

func TestAdjustStockGuardsNegative(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	book, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID: categoryID, Title: "Stocked", Author: "A", PriceCents: 60000, StockQuantity: 4,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	_, err = svc.AdjustStock(ctx, book.ID, 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("zero delta should be rejected, got %v", err)
	}

	updated, err := svc.AdjustStock(ctx, book.ID, -3)
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if updated.StockQuantity != 1 {
		t.Fatalf("expected stock 1, got %d", updated.StockQuantity)
	}

	_, err = svc.AdjustStock(ctx, book.ID, -2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("decrement below zero should be rejected, got %v", err)
	}
	final, err := svc.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if final.StockQuantity != 1 {
		t.Fatalf("stock must be unchanged after a rejected decrement, got %d", final.StockQuantity)
	}
}

func TestCategorySlugNormalizedAndUnique(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	slug := "slug-" + uuid.NewString()
	created, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Fiction " + slug, Slug: "  " + slug + "  "})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if created.Slug != slug {
		t.Fatalf("slug should be trimmed and lowercased, got %q", created.Slug)
	}

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Name: "Other " + slug, Slug: slug})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("duplicate slug should conflict, got %v", err)
	}

	found, err := svc.GetCategoryBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("GetCategoryBySlug: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("slug lookup returned the wrong category")
	}
}

func TestDeleteCategoryRequiresEmpty(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	categoryID := createCategory(t, svc)

	book, err := svc.CreateBook(ctx, CreateBookInput{
		CategoryID: categoryID, Title: "Occupant", Author: "A", PriceCents: 70000, StockQuantity: 1,
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	err = svc.DeleteCategory(ctx, categoryID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("non-empty category should not be deletable, got %v", err)
	}

	empty := createCategory(t, svc)
	update := UpdateBookInput{CategoryID: &empty}
	if _, err := svc.UpdateBook(ctx, book.ID, update); err != nil {
		t.Fatalf("move book: %v", err)
	}
	if err := svc.DeleteCategory(ctx, categoryID); err != nil {
		t.Fatalf("empty category should be deletable: %v", err)
	}
}
