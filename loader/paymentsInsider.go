package loader

import (
	"context"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

func insertPISalesRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.PaymentsInsiderSalesStaging, 0, len(t.rows))
	for _, row := range t.rows {
		record := models.PaymentsInsiderSalesStaging{
			SourceFileId:       fileId,
			BusinessName:       t.cell(row, "business_name"),
			Mid:                t.cell(row, "mid"),
			StoreNumber:        parseIntPtr(t.cell(row, "store_number")),
			CardBrand:          t.cell(row, "card_brand"),
			CardNumber:         t.cell(row, "card_number"),
			TransactionType:    t.cell(row, "transaction_type"),
			VoidInd:            t.cell(row, "void_ind"),
			SettledAmount:      parseAmountPtr(t.cell(row, "settled_amount")),
			SettledCurrency:    t.cell(row, "settled_currency"),
			SettledDate:        parseDate(t.cell(row, "settled_date")),
			TransactionDate:    parseDate(t.cell(row, "transaction_date")),
			TransactionTime:    t.cell(row, "transaction_time"),
			AuthorizationCode:  t.cell(row, "authorization_code"),
			GbokBatchId:        t.cell(row, "gbok_batch_id"),
			TerminalId:         t.cell(row, "terminal_id"),
			Invoice:            t.cell(row, "invoice"),
			OrderNumber:        t.cell(row, "order_number"),
			CardSwipeIndicator: t.cell(row, "card_swipe_indicator"),
			PosEntry:           t.cell(row, "pos_entry"),
		}
		if amount, ok := parseAmount(t.cell(row, "transaction_amount")); ok {
			record.TransactionAmount = amount
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

func insertPIPaymentsRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.PaymentsInsiderPaymentsStaging, 0, len(t.rows))
	for _, row := range t.rows {
		staging = append(staging, models.PaymentsInsiderPaymentsStaging{
			SourceFileId:      fileId,
			PaymentAmount:     parseAmountPtr(t.cell(row, "payment_amount")),
			Currency:          t.cell(row, "currency"),
			TransactionAmount: parseAmountPtr(t.cell(row, "transaction_amount")),
			PaymentNo:         t.cell(row, "payment_no"),
			PaymentDate:       parseDate(t.cell(row, "payment_date")),
			Account:           t.cell(row, "account"),
			MerchantId:        t.cell(row, "merchant_id"),
			BusinessName:      t.cell(row, "business_name"),
			PaymentType:       t.cell(row, "payment_type"),
			GbokBatchId:       t.cell(row, "gbok_batch_id"),
			TerminalId:        t.cell(row, "terminal_id"),
			CardBrand:         t.cell(row, "card_brand"),
			CardNumber:        t.cell(row, "card_number"),
			TransactionDate:   parseDate(t.cell(row, "transaction_date")),
			AuthorizationCode: t.cell(row, "authorization_code"),
			SettlementDate:    parseDate(t.cell(row, "settlement_date")),
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
