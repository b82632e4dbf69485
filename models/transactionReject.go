package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionReject records one failed promotion attempt for a staging row.
// Dimension columns are strings so that best-effort resolved values and
// sentinel placeholders ("DEVICE_NOT_FOUND", "NO_PAYMENT_METHOD", ...) can
// share a column. Append-only.
//
// Known accumulation behavior: rejects are not deduplicated, so a staging
// row whose dimension data is never fixed gains one fresh reject row per
// run. Operators clear the backlog by fixing the dimension and re-running.
type TransactionReject struct {
	ID int `gorm:"primary_key" json:"id"`

	TransactionDate   *time.Time       `gorm:"index" json:"transaction_date"`
	TransactionAmount *decimal.Decimal `gorm:"type:decimal(10,2)" json:"transaction_amount"`
	SettleDate        *time.Time       `json:"settle_date"`
	SettleAmount      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"settle_amount"`

	TerminalId       string `gorm:"size:100;index" json:"terminal_id"`
	PaymentMethod    string `gorm:"size:100" json:"payment_method"`
	Device           string `gorm:"size:100" json:"device"`
	SettlementSystem string `gorm:"size:100" json:"settlement_system"`
	Location         string `gorm:"size:100" json:"location"`
	ChargeCode       string `gorm:"size:100" json:"charge_code"`

	ReferenceNumber string `gorm:"size:255" json:"reference_number"`

	StagingTable    string `gorm:"size:50;not null;index:idx_rej_staging,priority:1" json:"staging_table"`
	StagingRecordId int    `gorm:"not null;index:idx_rej_staging,priority:2" json:"staging_record_id"`

	RejectReason RejectReason `gorm:"size:40;not null;index" json:"reject_reason"`
	RejectedAt   time.Time    `gorm:"autoCreateTime" json:"rejected_at"`
}

func (TransactionReject) TableName() string { return "fact_transaction_reject" }

func (r *TransactionReject) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("append-only fact: fact_transaction_reject rows cannot be updated")
}

func (r *TransactionReject) BeforeDelete(tx *gorm.DB) error {
	return errors.New("append-only fact: fact_transaction_reject rows cannot be deleted")
}
