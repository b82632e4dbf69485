package etl

import (
	"context"
	"errors"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconcileResult reports one settlement reconciliation pass.
type ReconcileResult struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// ReconcilePaymentsInsider runs the secondary PI pass: each pending
// payments staging row is matched onto an already-promoted sales fact by
// (card number, authorization code), the fact's settle date and amount are
// filled from the payment, and the payment row flips to processed.
//
// Payments and sales arrive in different files on different days, so a
// payment with no promoted sales fact yet is not an error: the row stays
// pending and is retried on the next pass.
func ReconcilePaymentsInsider(ctx context.Context, logger *logrus.Logger, sourceFileId int) (*ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "etl.ReconcilePaymentsInsider")
	defer span.End()

	db := config.GetDB()

	runLog, err := models.StartEtlRun(ctx, db, models.PaymentsInsiderPaymentsStaging{}.TableName(), sourceFileId)
	if err != nil {
		config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "StartEtlRun", sourceFileId, err)
		return nil, err
	}

	result := &ReconcileResult{}
	err = db.Transaction(func(tx *gorm.DB) error {
		var payments []models.PaymentsInsiderPaymentsStaging
		err := tx.WithContext(ctx).
			Where("source_file_id = ? AND processed_to_final = ?", sourceFileId, false).
			Order("id").
			Find(&payments).Error
		if err != nil {
			config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "fetch pending payments", sourceFileId, err)
			return err
		}

		for _, payment := range payments {
			result.Processed++

			factId, err := promotedSalesFactId(ctx, tx, payment.CardNumber, payment.AuthorizationCode)
			if err != nil {
				config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "match sales fact", payment.ID, err)
				return err
			}
			if factId == 0 {
				result.Unmatched++
				continue
			}

			err = tx.WithContext(ctx).Model(&models.Transaction{ID: factId}).
				Updates(map[string]interface{}{
					"SettleDate":   payment.SettlementDate,
					"SettleAmount": payment.PaymentAmount,
				}).Error
			if err != nil {
				config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "update fact settle fields", factId, err)
				return err
			}

			err = markStagingProcessed(ctx, tx, &models.PaymentsInsiderPaymentsStaging{}, payment.ID, factId)
			if err != nil {
				config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "mark payment processed", payment.ID, err)
				return err
			}
			result.Matched++
		}
		return nil
	})

	if err != nil {
		if failErr := runLog.Fail(ctx, db, err); failErr != nil {
			config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "EtlRunLog.Fail", runLog.ID, failErr)
		}
		return nil, err
	}

	if err := runLog.Complete(ctx, db, result.Processed, result.Matched, 0); err != nil {
		config.LogError(logger, "reconciler.go", "ReconcilePaymentsInsider", "EtlRunLog.Complete", runLog.ID, err)
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"source_file_id": sourceFileId,
		"correlation_id": runLog.CorrelationId,
		"processed":      result.Processed,
		"matched":        result.Matched,
		"unmatched":      result.Unmatched,
	}).Info("settlement reconciliation pass completed")

	return result, nil
}

// promotedSalesFactId resolves (card number, authorization code) to the
// fact promoted from the matching sales staging row. Returns 0 when no
// promoted sales row matches yet. Lowest staging id wins when the pair is
// not unique.
func promotedSalesFactId(ctx context.Context, tx *gorm.DB, cardNumber string, authorizationCode string) (int, error) {
	var sale models.PaymentsInsiderSalesStaging
	err := tx.WithContext(ctx).
		Where("card_number = ? AND authorization_code = ? AND transaction_id IS NOT NULL",
			cardNumber, authorizationCode).
		Order("id").
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if sale.TransactionId == nil {
		return 0, nil
	}
	return *sale.TransactionId, nil
}
