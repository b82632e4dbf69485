package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Dimension tables are owned by the admin side; the ETL core reads them
// only. Table names keep the warehouse-style dim_/fact_ prefixes the
// reporting queries were written against.

type Device struct {
	ID               int       `gorm:"primary_key" json:"id"`
	DeviceTerminalId string    `gorm:"size:100;uniqueIndex;not null" json:"device_terminal_id" binding:"required"`
	DeviceType       string    `gorm:"size:50;index" json:"device_type"`
	SupportsCash     *bool     `gorm:"not null;default:false" json:"supports_cash"`
	SupportsCard     *bool     `gorm:"not null;default:false" json:"supports_card"`
	SupportsMobile   *bool     `gorm:"not null;default:false" json:"supports_mobile"`
	SerialNumber     string    `gorm:"size:100" json:"serial_number"`
	Brand            string    `gorm:"size:50" json:"brand"`
	Model            string    `gorm:"size:50" json:"model"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Device) TableName() string { return "dim_device" }

type Facility struct {
	ID               int       `gorm:"primary_key" json:"id"`
	FacilityName     string    `gorm:"size:255;uniqueIndex;not null" json:"facility_name" binding:"required"`
	FacilityNickname string    `gorm:"size:100" json:"facility_nickname"`
	FacilityType     string    `gorm:"size:50" json:"facility_type"`
	OnOffStreet      string    `gorm:"size:10" json:"on_off_street"`
	StreetArea       string    `gorm:"size:100" json:"street_area"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Facility) TableName() string { return "dim_facility" }

type Space struct {
	ID          int        `gorm:"primary_key" json:"id"`
	SpaceNumber string     `gorm:"size:20;not null" json:"space_number" binding:"required"`
	SpaceType   string     `gorm:"size:50" json:"space_type"`
	FacilityId  int        `gorm:"index;not null" json:"facility_id" binding:"required"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	SpaceStatus string     `gorm:"size:20" json:"space_status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Space) TableName() string { return "dim_space" }

type Location struct {
	ID         int       `gorm:"primary_key" json:"id"`
	FacilityId int       `gorm:"index;not null;index:idx_loc_fac_space,priority:1" json:"facility_id" binding:"required"`
	SpaceId    *int      `gorm:"index:idx_loc_fac_space,priority:2" json:"space_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Location) TableName() string { return "dim_location" }

type ChargeCode struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ChargeCode    int       `gorm:"uniqueIndex;not null" json:"charge_code"`
	LocationId    int       `gorm:"not null;index:idx_cc_loc_prog,priority:1" json:"location_id" binding:"required"`
	ProgramTypeId int       `gorm:"not null;default:1;index:idx_cc_loc_prog,priority:2" json:"program_type_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ChargeCode) TableName() string { return "dim_charge_code" }

type PaymentMethod struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	PaymentMethodBrand string    `gorm:"size:50;uniqueIndex;not null" json:"payment_method_brand" binding:"required"`
	PaymentMethodType  string    `gorm:"size:50" json:"payment_method_type"`
	IsCash             *bool     `gorm:"not null;default:false" json:"is_cash"`
	IsCard             *bool     `gorm:"not null;default:false" json:"is_card"`
	IsMobile           *bool     `gorm:"not null;default:false" json:"is_mobile"`
	IsCheck            *bool     `gorm:"not null;default:false" json:"is_check"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentMethod) TableName() string { return "dim_payment_method" }

type SettlementSystem struct {
	ID         int       `gorm:"primary_key" json:"id"`
	SystemName string    `gorm:"size:50;uniqueIndex;not null" json:"system_name" binding:"required"`
	SystemType string    `gorm:"size:50" json:"system_type"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SettlementSystem) TableName() string { return "dim_settlement_system" }

// GetOrCreateLocation returns the location for a facility+space pair,
// creating it when absent. A nil spaceId means the facility-level location.
func GetOrCreateLocation(ctx context.Context, tx *gorm.DB, facilityId int, spaceId *int) (*Location, error) {
	var location Location
	q := tx.WithContext(ctx).Where("facility_id = ?", facilityId)
	if spaceId == nil {
		q = q.Where("space_id IS NULL")
	} else {
		q = q.Where("space_id = ?", *spaceId)
	}
	err := q.First(&location).Error
	if err == nil {
		return &location, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	location = Location{FacilityId: facilityId, SpaceId: spaceId}
	if err := tx.WithContext(ctx).Create(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// GetOrCreateChargeCode returns the charge code for (location, program),
// allocating the next code number above the 82000 block when absent.
func GetOrCreateChargeCode(ctx context.Context, tx *gorm.DB, locationId int, programTypeId int) (*ChargeCode, error) {
	var cc ChargeCode
	err := tx.WithContext(ctx).
		Where("location_id = ? AND program_type_id = ?", locationId, programTypeId).
		First(&cc).Error
	if err == nil {
		return &cc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var maxCode *int
	if err := tx.WithContext(ctx).Model(&ChargeCode{}).
		Select("MAX(charge_code)").Scan(&maxCode).Error; err != nil {
		return nil, err
	}
	next := 82000
	if maxCode != nil && *maxCode > next {
		next = *maxCode
	}
	cc = ChargeCode{
		ChargeCode:    next + 1,
		LocationId:    locationId,
		ProgramTypeId: programTypeId,
	}
	if err := tx.WithContext(ctx).Create(&cc).Error; err != nil {
		return nil, err
	}
	return &cc, nil
}
