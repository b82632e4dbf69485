package etl

import (
	"context"
	"strconv"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("revenue-etl")

// RunResult reports one promotion pass over a file.
type RunResult struct {
	Processed int `json:"processed"`
	Promoted  int `json:"promoted"`
	Rejected  int `json:"rejected"`
}

// Run executes the promote-and-reject pass for one source file. The whole
// pass runs inside a single transaction: either every promoted fact and
// every flipped processed_to_final flag commits together, or none do, so a
// crash mid-batch never leaves a fact row for a staging row still marked
// unprocessed.
//
// Resolution failures are data outcomes: the row gets a reject fact, its
// staging row stays unprocessed for retry after an operator fixes the
// missing dimension, and the pass continues. Only system faults abort the
// batch.
//
// Callers must serialize invocations per sourceFileId (see ObtainFileLock):
// two concurrent passes over the same file would both read
// processed_to_final = 0 before either commits and promote duplicates.
func Run(ctx context.Context, logger *logrus.Logger, adapter SourceAdapter, sourceFileId int) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "etl.Run")
	defer span.End()

	db := config.GetDB()

	runLog, err := models.StartEtlRun(ctx, db, adapter.StagingTable(), sourceFileId)
	if err != nil {
		config.LogError(logger, "promoter.go", "Run", "StartEtlRun", sourceFileId, err)
		return nil, err
	}

	result := &RunResult{}
	var cache *DimensionCache

	err = db.Transaction(func(tx *gorm.DB) error {
		cache, err = LoadDimensionCache(ctx, tx)
		if err != nil {
			config.LogError(logger, "promoter.go", "Run", "LoadDimensionCache", sourceFileId, err)
			return err
		}
		resolver := NewResolver(cache)

		units, err := adapter.PendingUnits(ctx, tx, sourceFileId)
		if err != nil {
			config.LogError(logger, "promoter.go", "Run", "PendingUnits", sourceFileId, err)
			return err
		}

		for _, unit := range units {
			if len(unit.Rows) == 0 {
				// All portions suppressed (for example a blended row whose
				// amounts are both zero). Nothing to promote or reject.
				continue
			}
			result.Processed++

			resolutions := make([]Resolution, len(unit.Rows))
			resolved := true
			for i, row := range unit.Rows {
				resolutions[i] = resolver.Resolve(row, adapter.SettlementSystemName())
				if !resolutions[i].Resolved() {
					resolved = false
				}
			}

			if !resolved {
				// All-or-nothing per staging row: a blended row with one
				// failing portion rejects whole, no partial facts.
				for i, row := range unit.Rows {
					if resolutions[i].Resolved() {
						continue
					}
					reject := buildReject(adapter.StagingTable(), unit.StagingRecordId, row, resolutions[i])
					if err := tx.WithContext(ctx).Create(reject).Error; err != nil {
						config.LogError(logger, "promoter.go", "Run", "Create TransactionReject", unit.StagingRecordId, err)
						return err
					}
				}
				result.Rejected++
				continue
			}

			firstFactId := 0
			for i, row := range unit.Rows {
				fact := buildTransaction(adapter.StagingTable(), unit.StagingRecordId, row, resolutions[i])
				if err := tx.WithContext(ctx).Create(fact).Error; err != nil {
					config.LogError(logger, "promoter.go", "Run", "Create Transaction", unit.StagingRecordId, err)
					return err
				}
				if firstFactId == 0 {
					firstFactId = fact.ID
				}
			}
			if err := adapter.MarkProcessed(ctx, tx, unit.StagingRecordId, firstFactId); err != nil {
				config.LogError(logger, "promoter.go", "Run", "MarkProcessed", unit.StagingRecordId, err)
				return err
			}
			result.Promoted++
		}
		return nil
	})

	if err != nil {
		if failErr := runLog.Fail(ctx, db, err); failErr != nil {
			config.LogError(logger, "promoter.go", "Run", "EtlRunLog.Fail", runLog.ID, failErr)
		}
		return nil, err
	}

	if err := runLog.Complete(ctx, db, result.Processed, result.Promoted, result.Rejected); err != nil {
		config.LogError(logger, "promoter.go", "Run", "EtlRunLog.Complete", runLog.ID, err)
		return nil, err
	}
	cache.PublishStats(runLog.CorrelationId)

	logger.WithFields(logrus.Fields{
		"source_table":   adapter.StagingTable(),
		"source_file_id": sourceFileId,
		"correlation_id": runLog.CorrelationId,
		"processed":      result.Processed,
		"promoted":       result.Promoted,
		"rejected":       result.Rejected,
	}).Info("etl promotion pass completed")

	return result, nil
}

func buildTransaction(stagingTable string, stagingRecordId int, row RawRow, res Resolution) *models.Transaction {
	return &models.Transaction{
		TransactionDate:    row.TransactionDate,
		TransactionAmount:  row.TransactionAmount,
		SettleDate:         row.SettleDate,
		SettleAmount:       row.SettleAmount,
		PaymentMethodId:    res.PaymentMethod.ID,
		DeviceId:           res.Device.ID,
		SettlementSystemId: res.SettlementSystem.ID,
		LocationId:         res.Location.ID,
		ProgramTypeId:      res.ProgramTypeId,
		ChargeCodeId:       res.ChargeCode.ID,
		ReferenceNumber:    row.ReferenceNumber,
		StagingTable:       stagingTable,
		StagingRecordId:    stagingRecordId,
	}
}

// buildReject mirrors the fact shape into string columns, substituting
// sentinel placeholders for the dimensions that did not resolve and
// keeping best-effort values for the ones that did.
func buildReject(stagingTable string, stagingRecordId int, row RawRow, res Resolution) *models.TransactionReject {
	reject := &models.TransactionReject{
		TransactionAmount: &row.TransactionAmount,
		SettleDate:        row.SettleDate,
		SettleAmount:      row.SettleAmount,
		TerminalId:        row.TerminalId,
		ReferenceNumber:   row.ReferenceNumber,
		StagingTable:      stagingTable,
		StagingRecordId:   stagingRecordId,
		RejectReason:      *res.Reject,
	}
	if !row.TransactionDate.IsZero() {
		ts := row.TransactionDate
		reject.TransactionDate = &ts
	}

	reject.Device = models.PlaceholderDeviceNotFound
	if res.Device != nil {
		reject.Device = res.Device.DeviceTerminalId
	}

	switch {
	case res.Location != nil:
		reject.Location = strconv.Itoa(res.Location.ID)
	case *res.Reject == models.RejectNoActiveAssignment:
		reject.Location = models.PlaceholderNoAssignment
	default:
		reject.Location = models.PlaceholderNoLocation
	}

	reject.ChargeCode = models.PlaceholderNoChargeCode
	if res.ChargeCode != nil {
		reject.ChargeCode = strconv.Itoa(res.ChargeCode.ChargeCode)
	}

	switch {
	case res.PaymentMethod != nil:
		reject.PaymentMethod = res.PaymentMethod.PaymentMethodBrand
	case *res.Reject == models.RejectPaymentMethodNotFound:
		reject.PaymentMethod = models.PlaceholderNoPaymentMethod
	case row.Brand != "":
		// Higher-precedence failure: keep the normalized brand as context.
		reject.PaymentMethod = row.Brand
	default:
		reject.PaymentMethod = models.PlaceholderNoPaymentMethod
	}

	reject.SettlementSystem = models.PlaceholderNoSettlementSystem
	if res.SettlementSystem != nil {
		reject.SettlementSystem = res.SettlementSystem.SystemName
	}

	return reject
}
