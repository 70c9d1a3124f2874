package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	return getKey(r.db.WithContext(ctx), key, userID)
}

func getKey(db *gorm.DB, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := db.Where("key = ? AND user_id = ?", key, userID).First(&ikey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ikey, nil
}

// Reserve relies on the unique (key, user_id) index: of two concurrent
// reservations exactly one insert lands.
func (r *idempotencyRepository) Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (*entity.IdempotencyKey, error) {
	var existing *entity.IdempotencyKey
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("key = ? AND user_id = ? AND expires_at < ?", ikey.Key, ikey.UserID, time.Now()).
			Delete(&entity.IdempotencyKey{}).Error
		if err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ikey)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 1 {
			return nil
		}

		existing, err = getKey(tx, ikey.Key, ikey.UserID)
		if err != nil {
			return err
		}
		if existing == nil {
			return errors.New("idempotency key conflict but no row found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, id uuid.UUID, code int, body string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&entity.IdempotencyKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"response_code": code,
			"response_body": body,
			"expires_at":    expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *idempotencyRepository) Release(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND response_code = 0", id).
		Delete(&entity.IdempotencyKey{}).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.IdempotencyKey{})
	return result.RowsAffected, result.Error
}
