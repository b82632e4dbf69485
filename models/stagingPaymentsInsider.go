package models

import (
	"time"

	"github.com/parkingutility/revenue_backend/utils"
	"github.com/shopspring/decimal"
)

// PaymentsInsiderSalesStaging holds raw rows from the PI sales report.
// Settlement data lives in the separate payments report; a sales row may be
// promoted before its payment arrives.
type PaymentsInsiderSalesStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	BusinessName      string           `gorm:"size:30" json:"business_name"`
	Mid               string           `gorm:"size:15" json:"mid"`
	StoreNumber       *int             `json:"store_number"`
	CardBrand         string           `gorm:"size:20" json:"card_brand"`
	CardNumber        string           `gorm:"size:20;index:idx_pi_sales_match,priority:1" json:"card_number"`
	TransactionType   string           `gorm:"size:20" json:"transaction_type"`
	VoidInd           string           `gorm:"size:3" json:"void_ind"`
	SettledAmount     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"settled_amount"`
	SettledCurrency   string           `gorm:"size:5" json:"settled_currency"`
	SettledDate       *time.Time       `json:"settled_date"`
	TransactionAmount decimal.Decimal  `gorm:"type:decimal(10,2)" json:"transaction_amount"`
	TransactionDate   *time.Time       `json:"transaction_date"`
	TransactionTime   string           `gorm:"size:11" json:"transaction_time"`
	AuthorizationCode string           `gorm:"size:12;index:idx_pi_sales_match,priority:2" json:"authorization_code"`
	GbokBatchId       string           `gorm:"size:12" json:"gbok_batch_id"`
	TerminalId        string           `gorm:"size:24" json:"terminal_id"`
	Invoice           string           `gorm:"size:50" json:"invoice"`
	OrderNumber       string           `gorm:"size:50" json:"order_number"`
	CardSwipeIndicator string          `gorm:"size:16" json:"card_swipe_indicator"`
	PosEntry          string           `gorm:"size:3" json:"pos_entry"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (PaymentsInsiderSalesStaging) TableName() string { return "payments_insider_sales_staging" }

// TransactionDateTime combines the report's separate date and clock-time
// columns. Falls back to the bare date when the time string is unparseable.
func (s *PaymentsInsiderSalesStaging) TransactionDateTime() *time.Time {
	if s.TransactionDate == nil {
		return nil
	}
	combined := utils.CombineDateTime(*s.TransactionDate, s.TransactionTime)
	return &combined
}

// PaymentsInsiderPaymentsStaging holds raw rows from the PI payments
// (funding) report, reconciled back onto promoted sales facts.
type PaymentsInsiderPaymentsStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	PaymentAmount     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"payment_amount"`
	Currency          string           `gorm:"size:3" json:"currency"`
	TransactionAmount *decimal.Decimal `gorm:"type:decimal(10,2)" json:"transaction_amount"`
	PaymentNo         string           `gorm:"size:20" json:"payment_no"`
	PaymentDate       *time.Time       `json:"payment_date"`
	Account           string           `gorm:"size:12" json:"account"`
	MerchantId        string           `gorm:"size:10" json:"merchant_id"`
	BusinessName      string           `gorm:"size:30" json:"business_name"`
	PaymentType       string           `gorm:"size:12" json:"payment_type"`
	GbokBatchId       string           `gorm:"size:12" json:"gbok_batch_id"`
	TerminalId        string           `gorm:"size:24" json:"terminal_id"`
	CardBrand         string           `gorm:"size:12" json:"card_brand"`
	CardNumber        string           `gorm:"size:20;index:idx_pi_pay_match,priority:1" json:"card_number"`
	TransactionDate   *time.Time       `json:"transaction_date"`
	AuthorizationCode string           `gorm:"size:12;index:idx_pi_pay_match,priority:2" json:"authorization_code"`
	SettlementDate    *time.Time       `json:"settlement_date"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (PaymentsInsiderPaymentsStaging) TableName() string { return "payments_insider_payments_staging" }
