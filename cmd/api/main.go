package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/api/routes"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/auth"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/cart"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/orders"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/reviews"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/users"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/wishlist"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/auth/session"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/config"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/metrics"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/migrate"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	userCarts, err := cart.NewService(cartRepo, dbClient, catalogRepo, cfg.Store)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	guestCarts, err := cart.NewSessionService(redisClient, catalogRepo, cfg.Store)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart service", err)
		os.Exit(1)
	}

	cartMigrator, err := cart.NewMigrator(userCarts, guestCarts, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart migrator", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		CartMigrator:   cartMigrator,
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		RateLimits:     cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, cartRepo, catalogRepo, userCarts, cfg.Store, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.NewRepository(dbClient.DB()), catalogRepo, userCarts)
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			Session:    sessionManager,
			Metrics:    httpMetrics,
			Gatherer:   prometheus.DefaultGatherer,
			Auth:       authService,
			Catalog:    catalogService,
			UserCarts:  userCarts,
			GuestCarts: guestCarts,
			Orders:     ordersService,
			Wishlist:   wishlistService,
			Reviews:    reviewsService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
