package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/restaurant-pos-api/internal/config"
	domainRepo "github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/handler"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/middleware"
	"github.com/sangkips/restaurant-pos-api/pkg/utils"
	"go.uber.org/zap"
)

// Roles allowed to change issued invoices and settings.
const (
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Invoice  *handler.InvoiceHandler
	Settings *handler.SettingsHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.UserRateLimiter
	Log             *zap.Logger
}

// NewRateLimiter builds the per-user limiter from RATE_LIMIT_* settings.
func NewRateLimiter(cfg *config.RateLimitConfig) *middleware.UserRateLimiter {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.Requests > 0 && cfg.Duration > 0 {
		rl.RequestsPerSecond = float64(cfg.Requests) / float64(cfg.Duration)
		rl.BurstSize = cfg.Requests
	}
	return middleware.NewUserRateLimiter(rl)
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(deps.RateLimiter.Middleware())

		registerInvoiceRoutes(protected, h, deps)
		registerPrinterRoutes(protected, h)
		registerSettingsRoutes(protected, h)
	}

	return router
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	invoices := protected.Group("/invoices")
	{
		invoices.POST("/quote", h.Invoice.Quote)
		// A retried finalize must not issue a second invoice number
		invoices.POST("", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
			Log:  deps.Log,
		}), h.Invoice.Finalize)
		invoices.GET("/:invoice_no", h.Invoice.Get)
		invoices.GET("/:invoice_no/discount-audits", h.Invoice.ListDiscountAudits)
		invoices.PUT("/:invoice_no/discount", middleware.RequireRole(RoleManager, RoleAdmin), h.Invoice.EditDiscount)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
		printerGroup.POST("/receipt", h.Printer.PrintReceipt)
		printerGroup.GET("/receipt/:invoice_no/html", h.Printer.ReceiptHTML)
	}
}

func registerSettingsRoutes(protected *gin.RouterGroup, h *Handlers) {
	protected.GET("/settings", h.Settings.GetSettings)
	protected.PUT("/settings", middleware.RequireRole(RoleManager, RoleAdmin), h.Settings.UpdateSettings)
}

// StartIdempotencyCleanup removes expired idempotency keys every interval
// until stop is closed.
func StartIdempotencyCleanup(repo domainRepo.IdempotencyRepository, interval time.Duration, log *zap.Logger, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := repo.DeleteExpired(ctx)
				cancel()
				if err != nil {
					log.Warn("idempotency cleanup failed", zap.Error(err))
				} else if n > 0 {
					log.Debug("idempotency keys expired", zap.Int64("deleted", n))
				}
			case <-stop:
				return
			}
		}
	}()
}
