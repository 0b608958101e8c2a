package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/auth"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/orders"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/reviews"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/users"
	pkgauth "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/auth"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest, ident authsvc.Identity) (*authsvc.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest, ident authsvc.Identity) (*authsvc.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.TokenPairResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

func (stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListBooks(ctx context.Context, filter catalog.ListBooksFilter) (catalog.BooksPageDTO, error) {
	return catalog.BooksPageDTO{}, nil
}

func (stubCatalogService) CreateBook(ctx context.Context, input catalog.CreateBookInput) (*models.Book, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateBook(ctx context.Context, id uuid.UUID, input catalog.UpdateBookInput) (*models.Book, error) {
	panic("unimplemented")
}

func (stubCatalogService) DeactivateBook(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Book, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return nil, nil
}

func (stubCatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCatalogService) CreateCategory(ctx context.Context, input catalog.CreateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalog.UpdateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubUserCartService struct{}

func (stubUserCartService) AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubUserCartService) UpdateItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubUserCartService) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubUserCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

func (stubUserCartService) GetCart(ctx context.Context, userID uuid.UUID) (cart.CartDTO, error) {
	return cart.CartDTO{}, nil
}

func (stubUserCartService) GetItemCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}

type stubGuestCartService struct{}

func (stubGuestCartService) AddItem(ctx context.Context, sessionID string, bookID uuid.UUID, qty int) (cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubGuestCartService) UpdateItem(ctx context.Context, sessionID string, bookID uuid.UUID, qty int) (cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubGuestCartService) RemoveItem(ctx context.Context, sessionID string, bookID uuid.UUID) (cart.CartDTO, error) {
	panic("unimplemented")
}

func (stubGuestCartService) Clear(ctx context.Context, sessionID string) error {
	panic("unimplemented")
}

func (stubGuestCartService) GetCart(ctx context.Context, sessionID string) (cart.CartDTO, error) {
	return cart.CartDTO{}, nil
}

func (stubGuestCartService) GetItemCount(ctx context.Context, sessionID string) (int, error) {
	return 0, nil
}

func (stubGuestCartService) Snapshot(ctx context.Context, sessionID string) ([]cart.SnapshotLine, error) {
	return nil, nil
}

type stubOrdersService struct{}

func (stubOrdersService) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListOrders(ctx context.Context, input orders.ListOrdersInput) (orders.OrdersPageDTO, error) {
	return orders.OrdersPageDTO{}, nil
}

func (stubOrdersService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Reorder(ctx context.Context, userID, orderID uuid.UUID) (orders.ReorderResult, error) {
	panic("unimplemented")
}

func (stubOrdersService) AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) AdminListOrders(ctx context.Context, input orders.AdminListOrdersInput) (orders.OrdersPageDTO, error) {
	return orders.OrdersPageDTO{}, nil
}

func (stubOrdersService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	panic("unimplemented")
}

type stubWishlistService struct{}

func (stubWishlistService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	return nil, nil
}

func (stubWishlistService) AddItem(ctx context.Context, userID, bookID uuid.UUID) error {
	panic("unimplemented")
}

func (stubWishlistService) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) error {
	panic("unimplemented")
}

func (stubWishlistService) MoveToCart(ctx context.Context, userID, bookID uuid.UUID) (cart.CartDTO, error) {
	panic("unimplemented")
}

type stubReviewsService struct{}

func (stubReviewsService) CreateReview(ctx context.Context, input reviews.CreateReviewInput) (*models.Review, error) {
	panic("unimplemented")
}

func (stubReviewsService) GetBookReviews(ctx context.Context, bookID uuid.UUID) (reviews.BookRatingDTO, error) {
	return reviews.BookRatingDTO{}, nil
}

func (stubReviewsService) AdminListPending(ctx context.Context) ([]models.Review, error) {
	return nil, nil
}

func (stubReviewsService) AdminApprove(ctx context.Context, reviewID uuid.UUID) error {
	return nil
}

func (stubReviewsService) AdminDelete(ctx context.Context, reviewID uuid.UUID) error {
	return nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:         "dev",
			Port:        "0",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		JWT: config.JWTConfig{
			Secret:                 "router-test-secret",
			Issuer:                 "bookstore-test",
			ExpirationMinutes:      30,
			RefreshTokenTTLMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	return NewRouter(Deps{
		Config:     cfg,
		Logger:     logg,
		Session:    stubSessionChecker{},
		Auth:       stubAuthService{},
		Catalog:    stubCatalogService{},
		UserCarts:  stubUserCartService{},
		GuestCarts: stubGuestCartService{},
		Orders:     stubOrdersService{},
		Wishlist:   stubWishlistService{},
		Reviews:    stubReviewsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestOrdersGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrdersGroupAcceptsCustomerJWT(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with customer token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/reviews/pending", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/reviews/pending", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCartServesAnonymousSessions(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous cart got %d", resp.Code)
	}
	if resp.Header().Get("X-Session-Id") == "" {
		t.Fatal("expected a minted session id header")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(testRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
