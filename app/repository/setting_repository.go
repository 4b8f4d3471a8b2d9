package repository

import (
	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get returns the in-memory application settings, loading them on first use
func (r *settingRepository) Get() (*models.AppSettings, error) {
	if settings := models.GetAppSettings(); settings != nil {
		return settings, nil
	}
	if err := models.LoadSettings(r.db); err != nil {
		return nil, err
	}
	return models.GetAppSettings(), nil
}

// Save persists the application settings
func (r *settingRepository) Save(settings *models.AppSettings) error {
	return models.SaveSettings(r.db, settings)
}
