package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"github.com/sangkips/restaurant-pos-api/internal/presentation/http/dto/response"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
	// IdempotencyPendingLease bounds how long a reservation blocks the key
	// if the process dies before recording the response.
	IdempotencyPendingLease = 2 * time.Minute

	maxIdempotencyKeyLen = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	Log  *zap.Logger
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired requires an Idempotency-Key on POST requests. The key
// is reserved before the handler runs, so of two concurrent requests with the
// same key only one is processed; the other gets 409. A reused key with the
// same body replays the stored response. Only 2xx responses are kept, so a
// failed or retryable request can be sent again under the same key.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" || len(idempotencyKey) > maxIdempotencyKeyLen {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}

		userID, ok := c.Get("user_id")
		id, isUUID := userID.(uuid.UUID)
		if !ok || !isUUID {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Could not read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		reservation := &entity.IdempotencyKey{
			Key:         idempotencyKey,
			UserID:      id,
			Endpoint:    c.Request.Method + " " + c.FullPath(),
			RequestHash: requestHash,
			ExpiresAt:   time.Now().Add(IdempotencyPendingLease),
		}
		existing, err := config.Repo.Reserve(c.Request.Context(), reservation)
		if err != nil {
			config.Log.Error("idempotency reservation failed", zap.Error(err))
			response.InternalServerError(c, "Failed to check idempotency key")
			c.Abort()
			return
		}

		if existing != nil {
			switch {
			case existing.RequestHash != requestHash:
				response.ErrorWithCode(c, http.StatusConflict, "Idempotency-Key was already used with a different request")
			case existing.IsPending():
				c.Header("Retry-After", "1")
				response.ErrorWithCode(c, http.StatusConflict, "A request with this Idempotency-Key is still being processed")
			default:
				c.Header("X-Idempotency-Replayed", "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			}
			c.Abort()
			return
		}

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// The outcome is recorded even if the client has gone away.
		ctx := context.WithoutCancel(c.Request.Context())
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			if err := config.Repo.Complete(ctx, reservation.ID, status, blw.body.String(), time.Now().Add(IdempotencyKeyTTL)); err != nil {
				config.Log.Warn("idempotency key not stored", zap.String("key", idempotencyKey), zap.Error(err))
			}
			return
		}
		if err := config.Repo.Release(ctx, reservation.ID); err != nil {
			config.Log.Warn("idempotency reservation not released", zap.String("key", idempotencyKey), zap.Error(err))
		}
	}
}
