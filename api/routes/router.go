package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/controllers"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/middleware"
	authsvc "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/auth"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/orders"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/reviews"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/wishlist"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/auth/session"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/enums"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/metrics"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Session  session.AccessSessionChecker
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth       authsvc.Service
	Catalog    catalog.Service
	UserCarts  cart.Service
	GuestCarts cart.SessionService
	Orders     orders.Service
	Wishlist   wishlist.Service
	Reviews    reviews.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis, logg))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.Auth(cfg.JWT, d.Session, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Session, logg)
	guestSession := middleware.GuestSession(logg)
	requireAdmin := middleware.RequireRole(string(enums.UserRoleAdmin), logg)

	cartCtrl := controllers.CartControllers{
		Users:  d.UserCarts,
		Guests: d.GuestCarts,
		Logg:   logg,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(guestSession).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(guestSession).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Auth, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Get("/books", controllers.BooksList(d.Catalog, logg))
		r.Get("/books/{bookId}", controllers.BookGet(d.Catalog, logg))
		r.Get("/books/{bookId}/reviews", controllers.BookReviewsList(d.Reviews, logg))
		r.With(requireAuth).Post("/books/{bookId}/reviews", controllers.ReviewCreate(d.Reviews, logg))
		r.Get("/categories", controllers.CategoriesList(d.Catalog, logg))

		// Cart routes serve both identities: authenticated users hit the
		// database cart, anonymous callers the Redis session cart.
		r.Route("/cart", func(r chi.Router) {
			r.Use(optionalAuth, guestSession)
			r.Get("/", cartCtrl.Get())
			r.Delete("/", cartCtrl.Clear())
			r.Get("/count", cartCtrl.Count())
			r.Post("/items", cartCtrl.AddItem())
			r.Put("/items/{bookId}", cartCtrl.UpdateItem())
			r.Delete("/items/{bookId}", cartCtrl.RemoveItem())
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(d.Orders, logg))
				r.Get("/", controllers.OrdersList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(d.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
				r.Post("/{orderId}/reorder", controllers.OrderReorder(d.Orders, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(d.Wishlist, logg))
				r.Post("/", controllers.WishlistAdd(d.Wishlist, logg))
				r.Delete("/{bookId}", controllers.WishlistRemove(d.Wishlist, logg))
				r.Post("/{bookId}/move-to-cart", controllers.WishlistMoveToCart(d.Wishlist, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth, requireAdmin)

		r.Route("/books", func(r chi.Router) {
			r.Post("/", controllers.AdminBookCreate(d.Catalog, logg))
			r.Put("/{bookId}", controllers.AdminBookUpdate(d.Catalog, logg))
			r.Delete("/{bookId}", controllers.AdminBookDeactivate(d.Catalog, logg))
			r.Post("/{bookId}/stock", controllers.AdminBookAdjustStock(d.Catalog, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(d.Catalog, logg))
			r.Put("/{categoryId}", controllers.AdminCategoryUpdate(d.Catalog, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(d.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(d.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderGet(d.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderUpdateStatus(d.Orders, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/pending", controllers.AdminReviewsPending(d.Reviews, logg))
			r.Post("/{reviewId}/approve", controllers.AdminReviewApprove(d.Reviews, logg))
			r.Delete("/{reviewId}", controllers.AdminReviewDelete(d.Reviews, logg))
		})
	})

	return r
}
