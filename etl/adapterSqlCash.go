package etl

import (
	"context"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

// SQLCashAdapter serves cash rows pulled straight from the garage
// point-of-sale database. The shape mirrors Windcave minus the card
// columns: the payment method is hardcoded to Cash and cash settles the
// day it is taken.
type SQLCashAdapter struct{}

func (SQLCashAdapter) Source() models.DataSourceType { return models.DataSourceSQLCash }
func (SQLCashAdapter) StagingTable() string          { return models.SQLCashStaging{}.TableName() }
func (SQLCashAdapter) SettlementSystemName() string  { return models.SettlementSystemSQLCash }

func (SQLCashAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.SQLCashStaging
	err := tx.WithContext(ctx).
		Where("source_file_id = ? AND processed_to_final = ?", sourceFileId, false).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	units := make([]StagingUnit, 0, len(rows))
	for _, row := range rows {
		raw := RawRow{
			TerminalId:        row.TerminalId,
			TransactionAmount: row.Amount,
			Brand:             BrandCash,
			ReferenceNumber:   row.Reference,
		}
		if row.TransactionDate != nil {
			raw.TransactionDate = *row.TransactionDate
			settleDate := *row.TransactionDate
			raw.SettleDate = &settleDate
		}
		amount := row.Amount
		raw.SettleAmount = &amount
		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: []RawRow{raw}})
	}
	return units, nil
}

func (SQLCashAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.SQLCashStaging{}, stagingRecordId, transactionId)
}
