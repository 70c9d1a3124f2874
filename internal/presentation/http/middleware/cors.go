package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/restaurant-pos-api/internal/config"
)

// Headers the POS front end always sends.
var requiredHeaders = []string{"Authorization", "Content-Type", "X-Request-ID", IdempotencyKeyHeader}

// CORSMiddleware creates a CORS middleware with the provided configuration
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Request-ID", "X-Idempotency-Replayed", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// The till UI runs locally during development
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}
	}

	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	}

	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Accept", "Origin")
	for _, h := range requiredHeaders {
		if !slices.Contains(corsConfig.AllowHeaders, h) {
			corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, h)
		}
	}

	return cors.New(corsConfig)
}
