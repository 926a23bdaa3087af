package repository

import (
	"context"

	"dailybread/models"
)

type SettingsRepository interface {
	// GetSettings returns the stored settings or the defaults when none exist.
	GetSettings(ctx context.Context, userID int64) (*models.GivingSettings, error)
	SaveSettings(ctx context.Context, settings *models.GivingSettings) error
}
