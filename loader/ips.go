package loader

import (
	"context"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

func insertIPSCreditCardRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.IPSCreditCardStaging, 0, len(t.rows))
	for _, row := range t.rows {
		record := models.IPSCreditCardStaging{
			SourceFileId:         fileId,
			SettlementDateTime:   parseDate(t.cell(row, "settlement_date_time")),
			TransactionReference: t.cell(row, "transaction_reference"),
			TransactionDateTime:  parseDate(t.cell(row, "transaction_date_time")),
			Zone:                 t.cell(row, "zone"),
			Area:                 t.cell(row, "area"),
			SubArea:              t.cell(row, "sub_area"),
			Pole:                 t.cell(row, "pole"),
			Terminal:             t.cell(row, "terminal"),
			BatchNumber:          parseIntPtr(t.cell(row, "batch_number")),
			AuthorizationCode:    t.cell(row, "authorization_code"),
			CardType:             t.cell(row, "card_type"),
			CardNumber:           t.cell(row, "card_number"),
		}
		if amount, ok := parseAmount(t.cell(row, "amount")); ok {
			record.Amount = amount
		}
		staging = append(staging, record)
	}
	if len(staging) == 0 {
		return 0, nil
	}
	if err := tx.WithContext(ctx).CreateInBatches(staging, insertBatchSize).Error; err != nil {
		return 0, err
	}
	return len(staging), nil
}

func insertIPSMobileRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.IPSMobileStaging, 0, len(t.rows))
	for _, row := range t.rows {
		record := models.IPSMobileStaging{
			SourceFileId:     fileId,
			ReceivedDateTime: parseDate(t.cell(row, "received_date_time")),
			Zone:             t.cell(row, "zone"),
			Area:             t.cell(row, "area"),
			SubArea:          t.cell(row, "sub_area"),
			Pole:             t.cell(row, "pole"),
			MeterType:        t.cell(row, "meter_type"),
			SpaceName:        parseIntPtr(t.cell(row, "space_name")),
			LicensePlate:     t.cell(row, "license_plate"),
			Prid:             parseIntPtr(t.cell(row, "prid")),
			ConvenienceFee:   parseAmountPtr(t.cell(row, "convenience_fee")),
			PartnerName:      t.cell(row, "partner_name"),
		}
		if amount, ok := parseAmount(t.cell(row, "paid")); ok {
			record.Paid = amount
		}
		staging = append(staging, record)
	}
	if len(staging) == 0 {
		return 0, nil
	}
	if err := tx.WithContext(ctx).CreateInBatches(staging, insertBatchSize).Error; err != nil {
		return 0, err
	}
	return len(staging), nil
}

func insertIPSCashRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.IPSCashStaging, 0, len(t.rows))
	for _, row := range t.rows {
		record := models.IPSCashStaging{
			SourceFileId:       fileId,
			CollectionDate:     parseDate(t.cell(row, "collection_date")),
			CollectionTime:     t.cell(row, "collection_time"),
			Zone:               t.cell(row, "zone"),
			Area:               t.cell(row, "area"),
			SubArea:            t.cell(row, "sub_area"),
			PoleSerNo:          t.cell(row, "pole_serno"),
			Terminal:           t.cell(row, "terminal"),
			MeterType:          t.cell(row, "meter_type"),
			CoinTotal:          parseIntPtr(t.cell(row, "coin_total")),
			UnrecognizedCoins:  parseIntPtr(t.cell(row, "unrecognized_coins")),
			InvalidCoinRevenue: parseAmountPtr(t.cell(row, "invalid_coin_revenue")),
		}
		if amount, ok := parseAmount(t.cell(row, "coin_revenue")); ok {
			record.CoinRevenue = amount
		}
		staging = append(staging, record)
	}
	if len(staging) == 0 {
		return 0, nil
	}
	if err := tx.WithContext(ctx).CreateInBatches(staging, insertBatchSize).Error; err != nil {
		return 0, err
	}
	return len(staging), nil
}

func insertIPSPoleRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.IPSPoleStaging, 0, len(t.rows))
	for _, row := range t.rows {
		staging = append(staging, models.IPSPoleStaging{
			SourceFileId:        fileId,
			TransactionDateTime: parseDate(t.cell(row, "transaction_date_time")),
			Zone:                t.cell(row, "zone"),
			Area:                t.cell(row, "area"),
			SubArea:             t.cell(row, "sub_area"),
			Pole:                t.cell(row, "pole"),
			Terminal:            t.cell(row, "terminal"),
			TransactionType:     t.cell(row, "transaction_type"),
			TransactionNumber:   t.cell(row, "transaction_number"),
			Coin:                parseAmountPtr(t.cell(row, "coin")),
			CreditCard:          parseAmountPtr(t.cell(row, "credit_card")),
			CardType:            t.cell(row, "card_type"),
		})
	}
	if len(staging) == 0 {
		return 0, nil
	}
	if err := tx.WithContext(ctx).CreateInBatches(staging, insertBatchSize).Error; err != nil {
		return 0, err
	}
	return len(staging), nil
}
