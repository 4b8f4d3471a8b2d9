package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/Walid-EM/restaurantsitev0-sub001/app/models"
)

// imageRepository implements the ImageRepository interface
type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new image repository instance
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create creates a new image in the database. A unique-index violation on
// file_name surfaces as ErrDuplicate.
func (r *imageRepository) Create(image *models.Image) error {
	if err := r.db.Create(image).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves an image by its ID
func (r *imageRepository) GetByID(id uint) (*models.Image, error) {
	var image models.Image
	err := r.db.First(&image, id).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByFileName retrieves an image by its stored file name
func (r *imageRepository) GetByFileName(fileName string) (*models.Image, error) {
	var image models.Image
	err := r.db.Where("file_name = ?", fileName).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// UpdateLocator rewrites the storage reference of an image, used by the
// reconciler when a blob moves backend.
func (r *imageRepository) UpdateLocator(id uint, filePath, externalID string) error {
	return r.db.Model(&models.Image{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"file_path":   filePath,
			"external_id": externalID,
		}).Error
}

// Delete soft deletes an image by its ID
func (r *imageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Image{}, id).Error
}

// List retrieves a paginated list of images, newest first
func (r *imageRepository) List(offset, limit int) ([]models.Image, error) {
	var images []models.Image
	err := r.db.Order("uploaded_at DESC").Offset(offset).Limit(limit).Find(&images).Error
	return images, err
}

// Count returns the total number of images
func (r *imageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Count(&count).Error
	return count, err
}

// TotalSize returns the cumulative byte size of all stored images
func (r *imageRepository) TotalSize() (int64, error) {
	var total int64
	err := r.db.Model(&models.Image{}).Select("COALESCE(SUM(file_size), 0)").Row().Scan(&total)
	return total, err
}

// isDuplicateKeyErr detects a unique-index violation. MySQL reports error
// 1062; gorm additionally normalizes it for some dialects.
func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate entry")
}
