package etl

import (
	"context"
	"fmt"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

// IPSMobileAdapter serves the IPS mobile-payment report. Mobile sessions
// are remote pay-by-cell payments, so the payment method is fixed to the
// Remote/PBC brand. The settled amount adds the per-session convenience
// fee on top of the paid amount.
type IPSMobileAdapter struct{}

func (IPSMobileAdapter) Source() models.DataSourceType { return models.DataSourceIPSMobile }
func (IPSMobileAdapter) StagingTable() string          { return models.IPSMobileStaging{}.TableName() }
func (IPSMobileAdapter) SettlementSystemName() string  { return models.SettlementSystemIPS }

func (IPSMobileAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.IPSMobileStaging
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
			TerminalId:        ipsTerminalId("", row.Pole),
			TransactionAmount: row.Paid,
			Brand:             BrandRemotePBC,
			ReferenceNumber:   mobileReference(row),
		}
		if row.ReceivedDateTime != nil {
			raw.TransactionDate = *row.ReceivedDateTime
			settleDate := *row.ReceivedDateTime
			raw.SettleDate = &settleDate
		}
		settleAmount := row.Paid
		if row.ConvenienceFee != nil {
			settleAmount = settleAmount.Add(*row.ConvenienceFee)
		}
		raw.SettleAmount = &settleAmount
		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: []RawRow{raw}})
	}
	return units, nil
}

// mobileReference prefers the provider-supplied id; sessions missing one
// get a synthetic reference from the staging row id.
func mobileReference(row models.IPSMobileStaging) string {
	if row.Prid != nil {
		return fmt.Sprintf("%d", *row.Prid)
	}
	return fmt.Sprintf("IPSMOB-%d", row.ID)
}

func (IPSMobileAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.IPSMobileStaging{}, stagingRecordId, transactionId)
}
