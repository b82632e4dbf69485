package etl

import (
	"context"
	"strings"
	"unicode"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

// IPSCreditCardAdapter serves the IPS credit-card report. IPS settles card
// transactions same-day, so the transaction date doubles as the settle
// date.
type IPSCreditCardAdapter struct{}

func (IPSCreditCardAdapter) Source() models.DataSourceType { return models.DataSourceIPSCC }
func (IPSCreditCardAdapter) StagingTable() string {
	return models.IPSCreditCardStaging{}.TableName()
}
func (IPSCreditCardAdapter) SettlementSystemName() string { return models.SettlementSystemIPS }

func (IPSCreditCardAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.IPSCreditCardStaging
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
			TerminalId:        ipsTerminalId(row.Terminal, row.Pole),
			TransactionAmount: row.Amount,
			Brand:             normalizeBrand(ipsCardBrands, row.CardType),
			ReferenceNumber:   row.TransactionReference,
		}
		if row.TransactionDateTime != nil {
			raw.TransactionDate = *row.TransactionDateTime
			settleDate := *row.TransactionDateTime
			raw.SettleDate = &settleDate
		}
		amount := row.Amount
		raw.SettleAmount = &amount
		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: []RawRow{raw}})
	}
	return units, nil
}

func (IPSCreditCardAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.IPSCreditCardStaging{}, stagingRecordId, transactionId)
}

// ipsTerminalId derives the dim_device terminal key for IPS sources: the
// terminal column when it is purely alphabetic, otherwise the first six
// characters of the pole serial.
func ipsTerminalId(terminal string, pole string) string {
	t := strings.TrimSpace(terminal)
	if t != "" && isAlphabetic(t) {
		return t
	}
	p := strings.TrimSpace(pole)
	if len(p) > 6 {
		p = p[:6]
	}
	return p
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
