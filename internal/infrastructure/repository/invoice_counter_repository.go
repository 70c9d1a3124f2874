package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceCounterRepository struct {
	db *gorm.DB
}

// NewInvoiceCounterRepository creates a database backed invoice counter
func NewInvoiceCounterRepository(db *gorm.DB) domainRepo.InvoiceCounterRepository {
	return &invoiceCounterRepository{db: db}
}

// Increment bumps the counter for dateKey and returns the new value.
// Uses: INSERT ... ON CONFLICT DO NOTHING, then
// UPDATE invoice_counters SET last_seq = last_seq + 1 ... RETURNING last_seq
// The UPDATE takes the row lock, so concurrent callers are serialized by the
// database and never observe the same value.
func (r *invoiceCounterRepository) Increment(ctx context.Context, dateKey string) (int64, error) {
	var seq int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// First invoice of the day creates the row; a concurrent creator wins silently
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.InvoiceCounter{DateKey: dateKey}).Error; err != nil {
			return err
		}

		result := tx.Raw(
			"UPDATE invoice_counters SET last_seq = last_seq + 1, updated_at = ? WHERE date_key = ? RETURNING last_seq",
			time.Now().UTC(), dateKey,
		).Scan(&seq)
		if result.Error != nil {
			return result.Error
		}
		if seq == 0 {
			return fmt.Errorf("invoice counter %s not found after insert", dateKey)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return seq, nil
}
