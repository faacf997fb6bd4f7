package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bkode/storefront/internal/auth"
	"github.com/bkode/storefront/internal/cache"
	"github.com/bkode/storefront/internal/config"
	"github.com/bkode/storefront/internal/gateway"
	storehttp "github.com/bkode/storefront/internal/http"
	"github.com/bkode/storefront/internal/logger"
	"github.com/bkode/storefront/internal/metrics"
	"github.com/bkode/storefront/internal/repository"
	"github.com/bkode/storefront/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "storefront-api",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("err", err))
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Error("failed to run migrations", slog.Any("err", err))
		os.Exit(1)
	}

	ctx := context.Background()

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsJSON)
	if err != nil {
		log.Error("failed to init identity verifier", slog.Any("err", err))
		os.Exit(1)
	}

	var productCache cache.ProductCache
	if cfg.RedisAddr != "" {
		productCache = cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	var gw gateway.PaymentGateway = gateway.NewStripeGateway(
		cfg.StripeSecretKey,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
		cfg.GatewayTimeout,
	)
	gw = gateway.NewBreakerGateway(gw)

	m := metrics.New()

	checkoutSvc := service.NewCheckoutService(repo, repo, gw, m, log)
	completionSvc := service.NewCompletionService(repo, productCache, m, log)
	catalogSvc := service.NewCatalogService(repo, productCache, log)
	cartSvc := service.NewCartService(repo, repo)
	orderSvc := service.NewOrderService(repo)
	userSvc := service.NewUserService(repo)

	router := storehttp.NewRouter(storehttp.RouterConfig{
		Verifier:       verifier,
		Admins:         auth.NewAdminSet(cfg.AdminUIDs),
		RequestTimeout: cfg.RequestTimeout,
		Products:       storehttp.NewProductsHandler(catalogSvc, cfg.RequestTimeout),
		Cart:           storehttp.NewCartHandler(cartSvc, cfg.RequestTimeout),
		Users:          storehttp.NewUsersHandler(userSvc, cfg.RequestTimeout),
		Checkout:       storehttp.NewCheckoutHandler(checkoutSvc, cfg.RequestTimeout),
		Webhook:        storehttp.NewWebhookHandler(completionSvc, cfg.StripeWebhookSecret, m, log),
		Orders:         storehttp.NewOrdersHandler(orderSvc, cfg.RequestTimeout),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.Any("err", err))
	}

	log.Info("server exited")
}
