package models

import (
	"context"
	"time"

	"github.com/parkingutility/revenue_backend/config"
)

// FileStatus is the operator-facing view of a file's progress through
// upload -> staging -> final facts, derived from uploaded_files joined
// against etl_run_log.
type FileStatus struct {
	ID               int            `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	FileSize         int64          `json:"file_size"`
	DataSourceType   DataSourceType `json:"data_source_type"`
	UploadDate       time.Time      `json:"upload_date"`
	RecordsProcessed *int           `json:"records_processed"`
	Status           string         `json:"status"`
	PercentComplete  int            `json:"percent_complete"`
	RecordsCreated   *int           `json:"records_created"`
	RecordsRejected  *int           `json:"records_rejected"`
	ErrorMessage     *string        `json:"error_message"`
	NeedsEtl         bool           `json:"needs_etl"`
	CanProcess       bool           `json:"can_process"`
}

const fileStatusSelect = `
SELECT
	uf.id,
	uf.original_filename,
	uf.file_size,
	uf.data_source_type,
	uf.upload_date,
	uf.records_processed,
	CASE
		WHEN uf.records_processed IS NULL THEN 'not_started'
		WHEN MAX(CASE WHEN etl.status = 'running' THEN 1 ELSE 0 END) = 1 THEN 'in_progress'
		WHEN MAX(CASE WHEN etl.status = 'completed' THEN 1 ELSE 0 END) = 1 THEN 'complete'
		WHEN MAX(CASE WHEN etl.status = 'failed' THEN 1 ELSE 0 END) = 1 THEN 'failed'
		ELSE 'not_complete'
	END AS status,
	CASE
		WHEN uf.records_processed > 0
		THEN LEAST(100, ROUND(COALESCE(MAX(etl.records_created), 0) * 100.0 / uf.records_processed))
		ELSE 0
	END AS percent_complete,
	MAX(etl.records_created) AS records_created,
	MAX(etl.records_rejected) AS records_rejected,
	MAX(etl.error_message) AS error_message,
	CASE
		WHEN uf.records_processed > 0 AND COALESCE(MAX(etl.records_created), 0) < uf.records_processed
		THEN 1 ELSE 0
	END AS needs_etl,
	CASE
		WHEN uf.records_processed > 0 AND MAX(CASE WHEN etl.status = 'running' THEN 1 ELSE 0 END) = 0
		THEN 1 ELSE 0
	END AS can_process
FROM uploaded_files uf
LEFT JOIN etl_run_log etl ON uf.id = etl.source_file_id
`

const fileStatusGroup = `
GROUP BY uf.id, uf.original_filename, uf.file_size, uf.data_source_type,
	uf.upload_date, uf.records_processed
`

func GetFileStatuses(ctx context.Context, dataSourceType *DataSourceType, limit, offset int) ([]*FileStatus, error) {
	db := config.GetDB()
	if limit <= 0 {
		limit = 100
	}

	query := fileStatusSelect
	args := []interface{}{}
	if dataSourceType != nil {
		query += " WHERE uf.data_source_type = ?"
		args = append(args, *dataSourceType)
	}
	query += fileStatusGroup + " ORDER BY uf.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var results []*FileStatus
	err := db.WithContext(ctx).Raw(query, args...).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetFileStatus(ctx context.Context, fileId int) (*FileStatus, error) {
	db := config.GetDB()
	var result FileStatus
	query := fileStatusSelect + " WHERE uf.id = ?" + fileStatusGroup
	err := db.WithContext(ctx).Raw(query, fileId).Scan(&result).Error
	if err != nil {
		return nil, err
	}
	if result.ID == 0 {
		return nil, nil
	}
	return &result, nil
}
