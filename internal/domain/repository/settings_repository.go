package repository

import (
	"context"

	"github.com/sangkips/restaurant-pos-api/internal/domain/entity"
)

// SettingsRepository defines the interface for settings data access
type SettingsRepository interface {
	// Get returns the stored settings row, or nil when none has been saved.
	Get(ctx context.Context) (*entity.RestaurantSettings, error)
	Save(ctx context.Context, settings *entity.RestaurantSettings) error
}
