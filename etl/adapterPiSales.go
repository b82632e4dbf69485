package etl

import (
	"context"
	"errors"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

// PaymentsInsiderSalesAdapter serves the PI sales report. Settlement data
// lives in a separate payments report: pending sales rows are left-paired
// with payments staging by (card number, authorization code), and a sales
// row with no payment yet is still promoted with null settle fields, to be
// filled by the settlement reconciler later. Voided sales are excluded
// entirely.
type PaymentsInsiderSalesAdapter struct{}

func (PaymentsInsiderSalesAdapter) Source() models.DataSourceType { return models.DataSourcePISales }
func (PaymentsInsiderSalesAdapter) StagingTable() string {
	return models.PaymentsInsiderSalesStaging{}.TableName()
}
func (PaymentsInsiderSalesAdapter) SettlementSystemName() string { return models.SettlementSystemPI }

func (PaymentsInsiderSalesAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.PaymentsInsiderSalesStaging
	err := tx.WithContext(ctx).
		Where("source_file_id = ? AND processed_to_final = ?", sourceFileId, false).
		Where("void_ind IS NULL OR void_ind != ?", "Y").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	units := make([]StagingUnit, 0, len(rows))
	for _, row := range rows {
		raw := RawRow{
			TerminalId:        row.TerminalId,
			TransactionAmount: row.TransactionAmount,
			Brand:             normalizeBrand(paymentsInsiderBrands, row.CardBrand),
			ReferenceNumber:   salesReference(row),
		}
		if ts := row.TransactionDateTime(); ts != nil {
			raw.TransactionDate = *ts
		}

		payment, err := matchingPayment(ctx, tx, row.CardNumber, row.AuthorizationCode)
		if err != nil {
			return nil, err
		}
		switch {
		case payment != nil:
			raw.SettleDate = payment.SettlementDate
			raw.SettleAmount = payment.PaymentAmount
		case row.SettledDate != nil:
			// Some sales exports carry their own settlement columns.
			raw.SettleDate = row.SettledDate
			raw.SettleAmount = row.SettledAmount
		}

		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: []RawRow{raw}})
	}
	return units, nil
}

// matchingPayment finds the payments staging row for a sales row's
// (card number, authorization code) pair, lowest id first. Nil when the
// payments file has not arrived yet.
func matchingPayment(ctx context.Context, tx *gorm.DB, cardNumber string, authorizationCode string) (*models.PaymentsInsiderPaymentsStaging, error) {
	var payment models.PaymentsInsiderPaymentsStaging
	err := tx.WithContext(ctx).
		Where("card_number = ? AND authorization_code = ?", cardNumber, authorizationCode).
		Order("id").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// salesReference prefers the invoice number; older exports only carry the
// authorization code.
func salesReference(row models.PaymentsInsiderSalesStaging) string {
	if row.Invoice != "" {
		return row.Invoice
	}
	return row.AuthorizationCode
}

func (PaymentsInsiderSalesAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.PaymentsInsiderSalesStaging{}, stagingRecordId, transactionId)
}
