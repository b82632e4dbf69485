package models

import (
	"time"

	"github.com/parkingutility/revenue_backend/utils"
	"github.com/shopspring/decimal"
)

// IPSCreditCardStaging holds raw rows from the IPS credit-card report.
// IPS settles card transactions same-day: the transaction date doubles as
// the settle date.
type IPSCreditCardStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	SettlementDateTime   *time.Time      `json:"settlement_date_time"`
	TransactionReference string          `gorm:"size:15" json:"transaction_reference"`
	TransactionDateTime  *time.Time      `json:"transaction_date_time"`
	Zone                 string          `gorm:"size:24" json:"zone"`
	Area                 string          `gorm:"size:50" json:"area"`
	SubArea              string          `gorm:"size:50" json:"sub_area"`
	Pole                 string          `gorm:"size:24" json:"pole"`
	Terminal             string          `gorm:"size:12" json:"terminal"`
	BatchNumber          *int            `json:"batch_number"`
	AuthorizationCode    string          `gorm:"size:8" json:"authorization_code"`
	CardType             string          `gorm:"size:12" json:"card_type"`
	CardNumber           string          `gorm:"size:15" json:"card_number"`
	Amount               decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (IPSCreditCardStaging) TableName() string { return "ips_cc_staging" }

// IPSMobileStaging holds raw rows from the IPS mobile-payment report.
// The settled amount includes the per-session convenience fee on top of the
// paid amount.
type IPSMobileStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	ReceivedDateTime *time.Time       `json:"received_date_time"`
	Zone             string           `gorm:"size:24" json:"zone"`
	Area             string           `gorm:"size:50" json:"area"`
	SubArea          string           `gorm:"size:50" json:"sub_area"`
	Pole             string           `gorm:"size:24" json:"pole"`
	MeterType        string           `gorm:"size:12" json:"meter_type"`
	SpaceName        *int             `json:"space_name"`
	LicensePlate     string           `gorm:"size:10" json:"license_plate"`
	Prid             *int             `json:"prid"`
	Paid             decimal.Decimal  `gorm:"type:decimal(10,2)" json:"paid"`
	ConvenienceFee   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"convenience_fee"`
	PartnerName      string           `gorm:"size:12" json:"partner_name"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (IPSMobileStaging) TableName() string { return "ips_mobile_staging" }

// IPSCashStaging holds raw rows from IPS coin-collection reports.
type IPSCashStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	CollectionDate     *time.Time       `json:"collection_date"`
	CollectionTime     string           `gorm:"size:11" json:"collection_time"`
	Zone               string           `gorm:"size:24" json:"zone"`
	Area               string           `gorm:"size:50" json:"area"`
	SubArea            string           `gorm:"size:50" json:"sub_area"`
	PoleSerNo          string           `gorm:"size:24" json:"pole_ser_no"`
	Terminal           string           `gorm:"size:12" json:"terminal"`
	MeterType          string           `gorm:"size:12" json:"meter_type"`
	CoinTotal          *int             `json:"coin_total"`
	CoinRevenue        decimal.Decimal  `gorm:"type:decimal(10,2)" json:"coin_revenue"`
	UnrecognizedCoins  *int             `json:"unrecognized_coins"`
	InvalidCoinRevenue *decimal.Decimal `gorm:"type:decimal(10,2)" json:"invalid_coin_revenue"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (IPSCashStaging) TableName() string { return "ips_cash_staging" }

// CollectionDateTime combines the collection date and its clock-time
// column. Falls back to the bare date when the time string is unparseable.
func (s *IPSCashStaging) CollectionDateTime() *time.Time {
	if s.CollectionDate == nil {
		return nil
	}
	combined := utils.CombineDateTime(*s.CollectionDate, s.CollectionTime)
	return &combined
}

// IPSPoleStaging holds raw rows from the pole-based generic IPS report.
// A single row can carry blended coin + card tender
// (transaction_type = "Coin & Card"); the ETL splits such rows into two
// facts.
type IPSPoleStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	TransactionDateTime *time.Time       `json:"transaction_date_time"`
	Zone                string           `gorm:"size:24" json:"zone"`
	Area                string           `gorm:"size:50" json:"area"`
	SubArea             string           `gorm:"size:50" json:"sub_area"`
	Pole                string           `gorm:"size:24" json:"pole"`
	Terminal            string           `gorm:"size:12" json:"terminal"`
	TransactionType     string           `gorm:"size:20" json:"transaction_type"`
	TransactionNumber   string           `gorm:"size:20" json:"transaction_number"`
	Coin                *decimal.Decimal `gorm:"type:decimal(10,2)" json:"coin"`
	CreditCard          *decimal.Decimal `gorm:"type:decimal(10,2)" json:"credit_card"`
	CardType            string           `gorm:"size:12" json:"card_type"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (IPSPoleStaging) TableName() string { return "ips_pole_staging" }

// SQLCashStaging holds cash rows pulled by direct query from the garage
// point-of-sale database; there is no uploaded file to parse, the importer
// stamps a synthetic UploadedFile for run bookkeeping.
type SQLCashStaging struct {
	ID           int `gorm:"primary_key" json:"id"`
	SourceFileId int `gorm:"index;not null" json:"source_file_id"`

	TransactionDate *time.Time      `json:"transaction_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Location        string          `gorm:"size:255" json:"location"`
	TerminalId      string          `gorm:"size:100" json:"terminal_id"`
	Reference       string          `gorm:"size:255" json:"reference"`

	LoadedAt         time.Time `gorm:"autoCreateTime" json:"loaded_at"`
	ProcessedToFinal bool      `gorm:"not null;default:false;index" json:"processed_to_final"`
	TransactionId    *int      `gorm:"index" json:"transaction_id"`
}

func (SQLCashStaging) TableName() string { return "sql_cash_staging" }
