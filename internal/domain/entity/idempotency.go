package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey stores the response of a processed request so a retried
// invoice finalization replays it instead of issuing a second number. A row
// with ResponseCode 0 is a reservation held while the first request runs.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_key_user;size:255;not null"` // The idempotency key from client
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_key_user"`
	Endpoint     string    `gorm:"size:255;not null"` // e.g. "POST /api/v1/invoices"
	RequestHash  string    `gorm:"size:64;not null"`  // SHA256 of the request body
	ResponseCode int       `gorm:"not null;default:0"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// BeforeCreate generates a UUID before creating a new key
func (i *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsPending reports whether the first request is still being processed.
func (i *IdempotencyKey) IsPending() bool {
	return i.ResponseCode == 0
}
