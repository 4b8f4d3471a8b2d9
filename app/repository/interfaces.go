package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
)

// ErrDuplicate is returned by ImageRepository.Create when the generated file
// name already exists. The unique index on file_name is the final arbiter of
// name collisions; callers map this to a conflict response instead of a
// generic server error.
var ErrDuplicate = errors.New("repository: duplicate file name")

// ImageRepository defines the interface for image-related database operations
type ImageRepository interface {
	Create(image *models.Image) error
	GetByID(id uint) (*models.Image, error)
	GetByFileName(fileName string) (*models.Image, error)
	UpdateLocator(id uint, filePath, externalID string) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Image, error)
	Count() (int64, error)
	TotalSize() (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Image   ImageRepository
	Setting SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Image:   NewImageRepository(db),
		Setting: NewSettingRepository(db),
	}
}
