package etl

import (
	"context"
	"time"

	"github.com/parkingutility/revenue_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RawRow is the common shape every source adapter maps its staging rows
// into before dimension resolution. One staging row usually yields one
// RawRow; blended pole rows yield two.
type RawRow struct {
	TerminalId        string
	TransactionDate   time.Time
	TransactionAmount decimal.Decimal
	SettleDate        *time.Time
	SettleAmount      *decimal.Decimal
	Brand             string
	ReferenceNumber   string
}

// StagingUnit groups the RawRows produced from a single staging row.
// Promotion is all-or-nothing per unit: the staging row is flipped to
// processed only when every portion resolved and got its fact.
type StagingUnit struct {
	StagingRecordId int
	Rows            []RawRow
}

// SourceAdapter maps one staging table into the common promotion shape.
// Implementations own the column mapping, brand normalization, reference
// construction and any row splitting for their source.
type SourceAdapter interface {
	Source() models.DataSourceType

	// StagingTable is the provenance name written into fact rows.
	StagingTable() string

	// SettlementSystemName is the fixed dim_settlement_system key for
	// this source.
	SettlementSystemName() string

	// PendingUnits fetches the staging rows for the file that are not yet
	// processed, excluding voided/cancelled rows entirely, converted to
	// units.
	PendingUnits(ctx context.Context, tx *gorm.DB, sourceFileId int) ([]StagingUnit, error)

	// MarkProcessed flips the staging row's processed_to_final and points
	// its transaction_id at the promoted fact.
	MarkProcessed(ctx context.Context, tx *gorm.DB, stagingRecordId int, transactionId int) error
}

// AdapterFor selects the adapter serving a data source type. Payments
// staging (pi_payments) has no adapter: it is consumed by the settlement
// reconciler, not promoted.
func AdapterFor(source models.DataSourceType) (SourceAdapter, bool) {
	switch source {
	case models.DataSourceWindcave:
		return WindcaveAdapter{}, true
	case models.DataSourcePISales:
		return PaymentsInsiderSalesAdapter{}, true
	case models.DataSourceIPSCC:
		return IPSCreditCardAdapter{}, true
	case models.DataSourceIPSMobile:
		return IPSMobileAdapter{}, true
	case models.DataSourceIPSCash:
		return IPSCashAdapter{}, true
	case models.DataSourceIPSPole:
		return IPSPoleAdapter{}, true
	case models.DataSourceSQLCash:
		return SQLCashAdapter{}, true
	}
	return nil, false
}
