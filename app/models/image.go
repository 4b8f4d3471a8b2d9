package models

import (
	"time"

	"gorm.io/gorm"
)

// Image is the metadata record for one stored menu/product image. A row is
// created on successful ingestion and is immutable afterwards except for
// locator updates performed by the reconciler when a file changes backend.
type Image struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	FileName     string `gorm:"type:varchar(255);not null;uniqueIndex" json:"file_name"`
	OriginalName string `gorm:"type:varchar(255)" json:"original_name"`
	ContentType  string `gorm:"type:varchar(100)" json:"content_type"`
	// FilePath holds the encoded storage locator ("local:...", "remote:..."
	// or "provider:..."), decided once at write time.
	FilePath string `gorm:"type:varchar(512);not null" json:"file_path"`
	// ExternalID is the backend-native key used for delete and re-fetch.
	ExternalID string `gorm:"type:varchar(512)" json:"external_id,omitempty"`
	FileSize   int64  `gorm:"type:bigint" json:"file_size"`
	Width      int    `gorm:"type:int" json:"width"`
	Height     int    `gorm:"type:int" json:"height"`
	HasThumbnail bool `gorm:"default:false" json:"has_thumbnail"`
	// EXIF metadata, best-effort
	CameraModel *string    `gorm:"type:varchar(255)" json:"camera_model,omitempty"`
	TakenAt     *time.Time `gorm:"type:datetime" json:"taken_at,omitempty"`

	UploadedAt time.Time      `gorm:"autoCreateTime" json:"uploaded_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"-"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
