package etl

import (
	"context"
	"fmt"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

// IPSCashAdapter serves IPS coin-collection reports. Coin collections have
// no external reference and no brand column: the payment method is
// hardcoded to Cash and the reference is synthesized from the staging row
// id.
type IPSCashAdapter struct{}

func (IPSCashAdapter) Source() models.DataSourceType { return models.DataSourceIPSCash }
func (IPSCashAdapter) StagingTable() string          { return models.IPSCashStaging{}.TableName() }
func (IPSCashAdapter) SettlementSystemName() string  { return models.SettlementSystemIPS }

func (IPSCashAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.IPSCashStaging
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
			TerminalId:        ipsTerminalId(row.Terminal, row.PoleSerNo),
			TransactionAmount: row.CoinRevenue,
			Brand:             BrandCash,
			ReferenceNumber:   fmt.Sprintf("IPSCASH-%d", row.ID),
		}
		if ts := row.CollectionDateTime(); ts != nil {
			raw.TransactionDate = *ts
			settleDate := *ts
			raw.SettleDate = &settleDate
		}
		amount := row.CoinRevenue
		raw.SettleAmount = &amount
		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: []RawRow{raw}})
	}
	return units, nil
}

func (IPSCashAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.IPSCashStaging{}, stagingRecordId, transactionId)
}
