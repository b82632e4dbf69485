package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is the normalized revenue fact. Created only by the ETL
// promoter; the only permitted mutation is the settlement reconciler
// filling settle_date/settle_amount. Facts are never deleted.
type Transaction struct {
	ID int `gorm:"primary_key" json:"id"`

	TransactionDate   time.Time        `gorm:"not null;index" json:"transaction_date"`
	TransactionAmount decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"transaction_amount"`
	SettleDate        *time.Time       `gorm:"index" json:"settle_date"`
	SettleAmount      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"settle_amount"`

	PaymentMethodId    int `gorm:"not null;index" json:"payment_method_id"`
	DeviceId           int `gorm:"not null;index" json:"device_id"`
	SettlementSystemId int `gorm:"not null;index" json:"settlement_system_id"`
	LocationId         int `gorm:"not null;index" json:"location_id"`
	ProgramTypeId      int `gorm:"not null;default:1" json:"program_type_id"`
	ChargeCodeId       int `gorm:"not null;index" json:"charge_code_id"`

	ReferenceNumber string `gorm:"size:255;index" json:"reference_number"`

	// Provenance back to the staging row this fact was promoted from.
	StagingTable    string `gorm:"size:50;not null;index:idx_tx_staging,priority:1" json:"staging_table"`
	StagingRecordId int    `gorm:"not null;index:idx_tx_staging,priority:2" json:"staging_record_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "fact_transaction" }

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable fact: fact_transaction rows cannot be deleted")
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	// Only the settlement reconciler's columns may change after promotion.
	allowed := map[string]bool{
		"SettleDate":   true,
		"SettleAmount": true,
		"UpdatedAt":    true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable fact: only settlement fields may be updated on fact_transaction")
		}
	}
	return nil
}
