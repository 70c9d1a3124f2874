package repository

import (
	"context"
	"errors"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
	"github.com/sangkips/restaurant-pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

// settingsRowID is the primary key of the single settings row.
const settingsRowID = 1

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the restaurant settings row
func (r *settingsRepository) Get(ctx context.Context) (*entity.RestaurantSettings, error) {
	var settings entity.RestaurantSettings
	err := r.db.WithContext(ctx).First(&settings, settingsRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Save creates or replaces the restaurant settings row
func (r *settingsRepository) Save(ctx context.Context, settings *entity.RestaurantSettings) error {
	settings.ID = settingsRowID
	return r.db.WithContext(ctx).Save(settings).Error
}
