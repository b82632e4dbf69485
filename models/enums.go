package models

import "errors"

type DataSourceType string

const (
	DataSourceWindcave   DataSourceType = "windcave"
	DataSourcePISales    DataSourceType = "pi_sales"
	DataSourcePIPayments DataSourceType = "pi_payments"
	DataSourceIPSCC      DataSourceType = "ips_cc"
	DataSourceIPSMobile  DataSourceType = "ips_mobile"
	DataSourceIPSCash    DataSourceType = "ips_cash"
	DataSourceIPSPole    DataSourceType = "ips_pole"
	DataSourceSQLCash    DataSourceType = "sql_cash"
	DataSourceOther      DataSourceType = "other"
)

func ParseDataSourceType(s string) (DataSourceType, error) {
	switch DataSourceType(s) {
	case DataSourceWindcave, DataSourcePISales, DataSourcePIPayments,
		DataSourceIPSCC, DataSourceIPSMobile, DataSourceIPSCash,
		DataSourceIPSPole, DataSourceSQLCash, DataSourceOther:
		return DataSourceType(s), nil
	}
	return "", errors.New("invalid data source type: " + s)
}

// Program types distinguish billing programs on the same location.
// Portable card readers bill under their own program.
const (
	ProgramTypeStandard       = 1
	ProgramTypePortableReader = 2
)

// Device types as recorded in dim_device. The portable reader type moves
// charge-code resolution to the portable program.
const (
	DeviceTypeSingleSpaceMeter = "single_space_meter"
	DeviceTypeMultiSpaceMeter  = "multi_space_meter"
	DeviceTypeSmartMeter       = "smart_meter"
	DeviceTypePortableReader   = "portable_reader"
	DeviceTypeFixedTerminal    = "fixed_terminal"
)

// RejectReason classifies why a staging row could not be promoted.
// These are data conditions, not faults: rejected rows are recorded and the
// batch continues.
type RejectReason string

const (
	RejectNoActiveAssignment       RejectReason = "NO_ACTIVE_DEVICE_ASSIGNMENT"
	RejectDeviceNotFound           RejectReason = "DEVICE_NOT_FOUND"
	RejectLocationNotFound         RejectReason = "LOCATION_NOT_FOUND"
	RejectChargeCodeNotFound       RejectReason = "CHARGE_CODE_NOT_FOUND"
	RejectPaymentMethodNotFound    RejectReason = "PAYMENT_METHOD_NOT_FOUND"
	RejectSettlementSystemNotFound RejectReason = "SETTLEMENT_SYSTEM_NOT_FOUND"
	RejectUnknown                  RejectReason = "UNKNOWN_ERROR"
)

// Placeholder values written into reject rows for unresolved columns.
const (
	PlaceholderDeviceNotFound     = "DEVICE_NOT_FOUND"
	PlaceholderNoAssignment       = "NO_ACTIVE_DEVICE_ASSIGNMENT"
	PlaceholderNoLocation         = "NO_LOCATION"
	PlaceholderNoChargeCode       = "NO_CHARGE_CODE"
	PlaceholderNoPaymentMethod    = "NO_PAYMENT_METHOD"
	PlaceholderNoSettlementSystem = "NO_SETTLEMENT_SYSTEM"
)

// ETL run log states.
const (
	EtlRunStatusRunning   = "running"
	EtlRunStatusCompleted = "completed"
	EtlRunStatusFailed    = "failed"
)

// Settlement system names, one fixed constant per source family.
const (
	SettlementSystemWindcave = "Windcave"
	SettlementSystemPI       = "PI"
	SettlementSystemIPS      = "IPS"
	SettlementSystemSQLCash  = "SQLCash"
)
