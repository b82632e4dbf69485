package models

import (
	"context"
	"time"

	"github.com/parkingutility/revenue_backend/config"
)

type UploadedFile struct {
	ID               int            `gorm:"primary_key" json:"id"`
	Filename         string         `gorm:"size:255;not null" json:"filename"`
	OriginalFilename string         `gorm:"size:255;not null" json:"original_filename"`
	FilePath         string         `gorm:"size:500;not null" json:"file_path"`
	FileSize         int64          `gorm:"not null" json:"file_size"`
	FileHash         string         `gorm:"size:64;uniqueIndex" json:"file_hash"`
	DataSourceType   DataSourceType `gorm:"size:30;not null;index" json:"data_source_type"`
	Description      string         `gorm:"type:text" json:"description"`
	UploadDate       time.Time      `gorm:"autoCreateTime" json:"upload_date"`
	IsProcessed      bool           `gorm:"not null;default:false" json:"is_processed"`
	ProcessedAt      *time.Time     `json:"processed_at"`
	RecordsProcessed *int           `json:"records_processed"`
}

func (UploadedFile) TableName() string { return "uploaded_files" }

func GetUploadedFile(ctx context.Context, id int) (*UploadedFile, error) {
	db := config.GetDB()
	var file UploadedFile
	if err := db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// MarkFileLoaded records that a file's rows landed in its staging table.
func MarkFileLoaded(ctx context.Context, fileId int, recordCount int) error {
	db := config.GetDB()
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(&UploadedFile{}).
		Where("id = ?", fileId).
		Updates(map[string]interface{}{
			"IsProcessed":      true,
			"ProcessedAt":      &now,
			"RecordsProcessed": recordCount,
		}).Error
}
