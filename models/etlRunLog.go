package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EtlRunLog tracks one promote/reject (or reconcile) pass over a file.
type EtlRunLog struct {
	ID               int        `gorm:"primary_key" json:"id"`
	SourceTable      string     `gorm:"size:50;not null" json:"source_table"`
	SourceFileId     int        `gorm:"index;not null" json:"source_file_id"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	StartTime        time.Time  `gorm:"autoCreateTime" json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	RecordsProcessed *int       `json:"records_processed"`
	RecordsCreated   *int       `json:"records_created"`
	RecordsRejected  *int       `json:"records_rejected"`
	Status           string     `gorm:"size:20;not null;index" json:"status"`
	ErrorMessage     *string    `gorm:"type:text" json:"error_message"`
}

func (EtlRunLog) TableName() string { return "etl_run_log" }

func StartEtlRun(ctx context.Context, db *gorm.DB, sourceTable string, sourceFileId int) (*EtlRunLog, error) {
	entry := EtlRunLog{
		SourceTable:   sourceTable,
		SourceFileId:  sourceFileId,
		CorrelationId: uuid.NewString(),
		Status:        EtlRunStatusRunning,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (e *EtlRunLog) Complete(ctx context.Context, db *gorm.DB, processed, created, rejected int) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Model(e).Updates(map[string]interface{}{
		"EndTime":          &now,
		"RecordsProcessed": processed,
		"RecordsCreated":   created,
		"RecordsRejected":  rejected,
		"Status":           EtlRunStatusCompleted,
	}).Error
}

func (e *EtlRunLog) Fail(ctx context.Context, db *gorm.DB, cause error) error {
	now := time.Now().UTC()
	msg := cause.Error()
	return db.WithContext(ctx).Model(e).Updates(map[string]interface{}{
		"EndTime":      &now,
		"Status":       EtlRunStatusFailed,
		"ErrorMessage": &msg,
	}).Error
}

// HasRunningEtl reports whether a run is currently marked running for the
// file. Used by callers as a second guard behind the redis lock.
func HasRunningEtl(ctx context.Context, db *gorm.DB, sourceFileId int) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&EtlRunLog{}).
		Where("source_file_id = ? AND status = ?", sourceFileId, EtlRunStatusRunning).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
