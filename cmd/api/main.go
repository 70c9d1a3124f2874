package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/restaurant-pos-api/internal/application/service"
	"github.com/sangkips/restaurant-pos-api/internal/config"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/enum"
	"github.com/sangkips/restaurant-pos-api/internal/infrastructure/cache"
	"github.com/sangkips/restaurant-pos-api/internal/infrastructure/database"
	"github.com/sangkips/restaurant-pos-api/internal/infrastructure/repository"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/handler"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/routes"
	"github.com/sangkips/restaurant-pos-api/pkg/invoiceno"
	"github.com/sangkips/restaurant-pos-api/pkg/logger"
	"github.com/sangkips/restaurant-pos-api/pkg/printer"
	"github.com/sangkips/restaurant-pos-api/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.App.Env, cfg.App.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	counter, err := newCounterStore(ctx, cfg, db)
	if err != nil {
		zlog.Fatal("Failed to set up invoice counter", zap.Error(err))
	}
	loc := cfg.Invoice.Location()
	allocator := invoiceno.NewAllocator(counter, loc)

	defaults, err := defaultSettings(&cfg.Restaurant, cfg.Printer.Type)
	if err != nil {
		zlog.Fatal("Invalid restaurant defaults", zap.Error(err))
	}

	// Initialize repositories
	invoiceRepo := repository.NewInvoiceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize thermal printer. Without a device every receipt is
	// rendered on screen.
	var transport *printer.Transport
	device, err := printer.NewDeviceFromConfig(printer.DeviceConfig{
		Type: cfg.Printer.Type,
		USB: printer.USBConfig{
			VendorID:  cfg.Printer.VendorID,
			ProductID: cfg.Printer.ProductID,
			Config:    cfg.Printer.USBConfig,
			Interface: cfg.Printer.USBInterface,
			Endpoint:  cfg.Printer.USBEndpoint,
		},
		DevicePath: cfg.Printer.DevicePath,
		Address:    cfg.Printer.Address,
	})
	switch {
	case err != nil:
		zlog.Warn("Printer not configured, receipts will be rendered on screen", zap.Error(err))
	case device != nil:
		transport = printer.NewTransport(device, cfg.Printer.StepTimeout, zlog)
	}

	// Initialize services
	settingsService := service.NewSettingsService(settingsRepo, defaults, zlog)
	invoiceService := service.NewInvoiceService(invoiceRepo, allocator, settingsService, zlog)
	receiptService := service.NewReceiptService(loc)
	printerService, err := service.NewPrinterService(ctx, transport, receiptService, invoiceRepo, settingsService, zlog)
	if err != nil {
		zlog.Fatal("Failed to load settings", zap.Error(err))
	}

	// Initialize handlers
	handlers := &routes.Handlers{
		Invoice:  handler.NewInvoiceHandler(invoiceService, printerService),
		Settings: handler.NewSettingsHandler(settingsService, printerService, zlog),
		Printer:  handler.NewPrinterHandler(printerService),
	}

	rateLimiter := routes.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Stop()
	routes.StartIdempotencyCleanup(idempotencyRepo, time.Hour, zlog, ctx.Done())

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret),
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Log:             zlog,
	})

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		zlog.Info("Starting server",
			zap.String("service", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
			zap.String("printer", cfg.Printer.Type),
			zap.String("counter", cfg.Invoice.CounterBackend),
		)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	case <-ctx.Done():
		zlog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error("Server shutdown failed", zap.Error(err))
		}
	}
}

// newCounterStore picks where daily invoice sequences are kept.
func newCounterStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (invoiceno.CounterStore, error) {
	switch strings.ToLower(cfg.Invoice.CounterBackend) {
	case "", "postgres":
		return repository.NewInvoiceCounterRepository(db), nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisCounterStore(client, cfg.Redis.Prefix), nil
	case "memory":
		return invoiceno.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown INVOICE_COUNTER_BACKEND %q (use postgres, redis or memory)", cfg.Invoice.CounterBackend)
	}
}

// defaultSettings turns RESTAURANT_* variables into the settings used until
// the first save through the API.
func defaultSettings(rc *config.RestaurantConfig, printerType string) (entity.Settings, error) {
	regime, err := enum.ParseTaxRegime(rc.GSTType)
	if err != nil {
		return entity.Settings{}, err
	}
	width, err := enum.ParsePrintDialect(rc.PaperWidth)
	if err != nil {
		return entity.Settings{}, err
	}
	if printerType == "" {
		printerType = entity.PrinterTypeNone
	}
	return entity.Settings{
		RestaurantName:    rc.Name,
		RestaurantAddress: rc.Address,
		RestaurantPhone:   rc.Phone,
		GSTNumber:         strings.ToUpper(strings.TrimSpace(rc.GSTNumber)),
		GSTType:           regime,
		FooterText:        rc.FooterText,
		PrinterType:       strings.ToLower(printerType),
		PaperWidth:        width,
	}, nil
}
