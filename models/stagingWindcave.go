package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WindcaveStaging holds raw rows from Windcave settlement exports.
// Rows arrive pre-settled: the export carries both transaction and
// settlement date/amount.
type WindcaveStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	Time           *time.Time      `json:"time"`
	SettlementDate *time.Time      `json:"settlement_date"`
	GroupAccount   string          `gorm:"size:24" json:"group_account"`
	Type           string          `gorm:"size:5" json:"type"`
	Authorized     *int            `json:"authorized"`
	Reference      string          `gorm:"size:20" json:"reference"`
	AuthCode       string          `gorm:"size:12" json:"auth_code"`
	Cur            string          `gorm:"size:5" json:"cur"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	CardNum        string          `gorm:"size:12" json:"card_num"`
	CardType       string          `gorm:"size:20" json:"card_type"`
	CardHolderName string          `gorm:"size:50" json:"card_holder_name"`
	DpsTxnRef      string          `gorm:"size:20" json:"dpstxnref"`
	TxnRef         string          `gorm:"size:32" json:"txnref"`
	ResponseText   string          `gorm:"size:24" json:"responsetext"`
	Username       string          `gorm:"size:20" json:"username"`
	DeviceId       string          `gorm:"size:20" json:"device_id"`
	Voided         *int            `json:"voided"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (WindcaveStaging) TableName() string { return "windcave_staging" }
