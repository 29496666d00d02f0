package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/udonggeum-checkout/config"
	"github.com/ikkim/udonggeum-checkout/internal/app/controller"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/router"
	"github.com/ikkim/udonggeum-checkout/internal/scheduler"
	"github.com/ikkim/udonggeum-checkout/internal/storage"
	ws "github.com/ikkim/udonggeum-checkout/internal/websocket"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/ikkim/udonggeum-checkout/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
		Service:     "udonggeum-checkout",
	})

	logger.Info("Starting UDONGGEUM Checkout Server", map[string]interface{}{
		"environment":    cfg.Server.Environment,
		"port":           cfg.Server.Port,
		"log_level":      logLevel,
		"catalog_source": cfg.Catalog.Source,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional; catalogs fall back to the in-process cache
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without shared catalog cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
		}
	}

	// Initialize repositories
	cartRepo := repository.NewCartRepository(db.GetDB())
	couponRepo := repository.NewCouponRepository(db.GetDB())
	catalogRepo := repository.NewCatalogRepository(db.GetDB())

	// Initialize services
	catalogService := service.NewCatalogService(
		newCatalogSource(cfg, catalogRepo),
		redis.NewCatalogCache(redis.GetClient(), cfg.Catalog.CacheTTL),
		cfg.Catalog.CacheTTL,
	)
	couponService := service.NewCouponService(couponRepo)
	shipping := service.ShippingRuleFor(cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingFee)

	renderCart := service.RenderCart(couponService, shipping)
	hub := ws.NewHub(func(shopperID string, snapshot cart.Snapshot) (interface{}, error) {
		return renderCart(shopperID, snapshot)
	})
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go hub.Run(ctx)

	carts := service.NewCartRegistry(cartRepo, hub, cfg.Pricing.MaxCartQuantity)
	shoppingService := service.NewShoppingService(catalogService, carts, couponService, shipping)
	settlementService := service.NewSettlementService(carts, couponService, shipping)

	// Start scheduler
	checkoutScheduler := scheduler.NewCheckoutScheduler(couponService, settlementService, cfg.Scheduler)
	if err := checkoutScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}

	// Initialize controllers
	variantController := controller.NewVariantController(shoppingService)
	cartController := controller.NewCartController(shoppingService)
	cartSocketController := controller.NewCartSocketController(shoppingService, hub, cfg.CORS.AllowedOrigins)
	settlementController := controller.NewSettlementController(settlementService)
	catalogController := controller.NewCatalogController(catalogService)
	couponController := controller.NewCouponController(couponService)

	if cfg.Server.AdminKey == "" {
		logger.Warn("ADMIN_API_KEY is not set, admin routes are disabled")
	}

	// Setup router
	r := router.NewRouter(
		variantController,
		cartController,
		cartSocketController,
		settlementController,
		catalogController,
		couponController,
		cfg,
	)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	checkoutScheduler.Stop()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}

func newCatalogSource(cfg *config.Config, repo repository.CatalogRepository) service.CatalogSource {
	switch cfg.Catalog.Source {
	case "s3":
		return service.NewS3CatalogSource(storage.NewS3CatalogStore(storage.S3Options{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.CatalogPrefix,
			Endpoint:        cfg.S3.Endpoint,
		}))
	case "file":
		return service.NewDirCatalogSource(cfg.Catalog.Dir)
	default:
		return service.NewDBCatalogSource(repo)
	}
}
