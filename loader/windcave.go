package loader

import (
	"context"

	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
)

func insertWindcaveRows(ctx context.Context, tx *gorm.DB, fileId int, t *table) (int, error) {
	staging := make([]models.WindcaveStaging, 0, len(t.rows))
	for _, row := range t.rows {
		record := models.WindcaveStaging{
			SourceFileId:   fileId,
			Time:           parseDate(t.cell(row, "time")),
			SettlementDate: parseDate(t.cell(row, "settlement_date")),
			GroupAccount:   t.cell(row, "group_account"),
			Type:           t.cell(row, "type"),
			Authorized:     parseIntPtr(t.cell(row, "authorized")),
			Reference:      t.cell(row, "reference"),
			AuthCode:       t.cell(row, "auth_code"),
			Cur:            t.cell(row, "cur"),
			CardNum:        t.cell(row, "card_num"),
			CardType:       t.cell(row, "card_type"),
			CardHolderName: t.cell(row, "card_holder_name"),
			DpsTxnRef:      t.cell(row, "dpstxnref"),
			TxnRef:         t.cell(row, "txnref"),
			ResponseText:   t.cell(row, "responsetext"),
			Username:       t.cell(row, "username"),
			DeviceId:       t.cell(row, "device_id"),
			Voided:         parseIntPtr(t.cell(row, "voided")),
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
