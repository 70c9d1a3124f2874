package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey returns the stored entry for key and user, or nil.
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	// Reserve inserts ikey as a pending entry, replacing an expired one with
	// the same key. When a live entry already holds the key it is returned
	// and nothing is written; a nil result means the caller owns the key.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (*entity.IdempotencyKey, error)
	// Complete stores the response of a reserved entry.
	Complete(ctx context.Context, id uuid.UUID, code int, body string, expiresAt time.Time) error
	// Release drops a pending reservation so the key can be used again.
	Release(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes expired keys and reports how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
