package etl

import (
	"context"
	"strings"

	"github.com/parkingutility/revenue_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IPSPoleAdapter serves the pole-based generic IPS report, the one source
// where a single staging row can carry blended tender: a
// "Coin & Card" row splits into a coin fact and a card fact with distinct
// suffixed references. Zero-amount portions are suppressed.
type IPSPoleAdapter struct{}

func (IPSPoleAdapter) Source() models.DataSourceType { return models.DataSourceIPSPole }
func (IPSPoleAdapter) StagingTable() string          { return models.IPSPoleStaging{}.TableName() }
func (IPSPoleAdapter) SettlementSystemName() string  { return models.SettlementSystemIPS }

func (IPSPoleAdapter) PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error) {
	var rows []models.IPSPoleStaging
	err := tx.WithContext(ctx).
		Where("source_file_id = ? AND processed_to_final = ?", sourceFileId, false).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	units := make([]StagingUnit, 0, len(rows))
	for _, row := range rows {
		units = append(units, StagingUnit{StagingRecordId: row.ID, Rows: poleRawRows(row)})
	}
	return units, nil
}

func (IPSPoleAdapter) MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error {
	return markStagingProcessed(ctx, tx, &models.IPSPoleStaging{}, stagingRecordId, transactionId)
}

// poleRawRows converts one pole staging row into its fact portions.
func poleRawRows(row models.IPSPoleStaging) []RawRow {
	base := RawRow{TerminalId: ipsTerminalId(row.Terminal, row.Pole)}
	if row.TransactionDateTime != nil {
		base.TransactionDate = *row.TransactionDateTime
		settleDate := *row.TransactionDateTime
		base.SettleDate = &settleDate
	}

	coin := decimalOrZero(row.Coin)
	card := decimalOrZero(row.CreditCard)

	switch strings.TrimSpace(row.TransactionType) {
	case "Coin & Card":
		rows := make([]RawRow, 0, 2)
		if !coin.IsZero() {
			rows = append(rows, polePortion(base, coin, BrandCash, row.TransactionNumber+"_COIN"))
		}
		if !card.IsZero() {
			rows = append(rows, polePortion(base, card, normalizeBrand(ipsCardBrands, row.CardType), row.TransactionNumber+"_CARD"))
		}
		return rows
	case "Coins":
		// Coin-only rows may omit the card type column entirely.
		brand := BrandCash
		if strings.TrimSpace(row.CardType) != "" {
			brand = normalizeBrand(ipsCardBrands, row.CardType)
		}
		return []RawRow{polePortion(base, coin, brand, row.TransactionNumber)}
	case "Card":
		return []RawRow{polePortion(base, card, normalizeBrand(ipsCardBrands, row.CardType), row.TransactionNumber)}
	default:
		// Unrecognized types carry whichever tender column is populated.
		if !card.IsZero() {
			return []RawRow{polePortion(base, card, normalizeBrand(ipsCardBrands, row.CardType), row.TransactionNumber)}
		}
		return []RawRow{polePortion(base, coin, BrandCash, row.TransactionNumber)}
	}
}

func polePortion(base RawRow, amount decimal.Decimal, brand string, reference string) RawRow {
	portion := base
	portion.TransactionAmount = amount
	portion.SettleAmount = &amount
	portion.Brand = brand
	portion.ReferenceNumber = reference
	return portion
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
