package etl

import (
	"context"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

// WindcaveAdapter serves Windcave settlement exports. Rows arrive
// pre-settled, so settle date and amount come straight from the source.
// Voided rows are excluded entirely: never promoted, never rejected,
// never flipped to processed.
type WindcaveAdapter struct{}

func (WindcaveAdapter) Source() models.DataSourceType { return models.DataSourceWindcave }
func (WindcaveAdapter) StagingTable() string          { return models.WindcaveStaging{}.TableName() }
func (WindcaveAdapter) SettlementSystemName() string  { return models.SettlementSystemWindcave }

func (WindcaveAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.WindcaveStaging
	err := tx.WithContext(ctx).
		Where("source_file_id = ? AND processed_to_final = ?", sourceFileId, false).
		Where("voided IS NULL OR voided = 0").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	units := make([]StagingUnit, 0, len(rows))
	for _, row := range rows {
		raw := RawRow{
			TerminalId:        row.DeviceId,
			TransactionAmount: row.Amount,
			SettleDate:        row.SettlementDate,
			Brand:             normalizeBrand(windcaveBrands, row.CardType),
			ReferenceNumber:   row.DpsTxnRef,
		}
		if row.Time != nil {
			raw.TransactionDate = *row.Time
		}
		amount := row.Amount
		raw.SettleAmount = &amount
		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: []RawRow{raw}})
	}
	return units, nil
}

func (WindcaveAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.WindcaveStaging{}, stagingRecordId, transactionId)
}

// markStagingProcessed flips processed_to_final and records the fact id on
// any staging table. Shared by every adapter.
func markStagingProcessed(ctx context.Context, tx *gorm.DB, model interface{}, stagingRecordId int, transactionId int) error {
	return tx.WithContext(ctx).Model(model).
		Where("id = ?", stagingRecordId).
		Updates(map[string]interface{}{
			"ProcessedToFinal": true,
			"TransactionId":    transactionId,
		}).Error
}
