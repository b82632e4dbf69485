package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeds the reference dimensions the ETL resolves against: payment
// methods, settlement systems and, with -demo, a small
// facility/device/assignment/charge-code graph for local runs.
func main() {
	demo := flag.Bool("demo", false, "Also seed a demo facility, devices, assignments and charge codes")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	if err := seedPaymentMethods(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "seed payment methods: %v\n", err)
		os.Exit(1)
	}
	if err := seedSettlementSystems(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "seed settlement systems: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("payment methods and settlement systems seeded")

	if *demo {
		if err := seedDemoGraph(ctx, db); err != nil {
			fmt.Fprintf(os.Stderr, "seed demo graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("demo facility/device/assignment graph seeded")
	}
}

func boolPtr(b bool) *bool { return &b }

func seedPaymentMethods(ctx context.Context, db *gorm.DB) error {
	methods := []models.PaymentMethod{
		{PaymentMethodBrand: "Visa", PaymentMethodType: "credit_card", IsCard: boolPtr(true)},
		{PaymentMethodBrand: "Mastercard", PaymentMethodType: "credit_card", IsCard: boolPtr(true)},
		{PaymentMethodBrand: "Discover", PaymentMethodType: "credit_card", IsCard: boolPtr(true)},
		{PaymentMethodBrand: "Amex", PaymentMethodType: "credit_card", IsCard: boolPtr(true)},
		{PaymentMethodBrand: "Cash", PaymentMethodType: "cash", IsCash: boolPtr(true)},
		{PaymentMethodBrand: "Remote/PBC", PaymentMethodType: "mobile", IsMobile: boolPtr(true)},
		{PaymentMethodBrand: "Check", PaymentMethodType: "check", IsCheck: boolPtr(true)},
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&methods).Error
}

func seedSettlementSystems(ctx context.Context, db *gorm.DB) error {
	systems := []models.SettlementSystem{
		{SystemName: models.SettlementSystemWindcave, SystemType: "card_processor"},
		{SystemName: models.SettlementSystemPI, SystemType: "card_processor"},
		{SystemName: models.SettlementSystemIPS, SystemType: "meter_vendor"},
		{SystemName: models.SettlementSystemSQLCash, SystemType: "point_of_sale"},
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&systems).Error
}

func seedDemoGraph(ctx context.Context, db *gorm.DB) error {
	facility := models.Facility{
		FacilityName: "Demo Garage",
		FacilityType: "garage",
		OnOffStreet:  "off",
	}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&facility).Error; err != nil {
		return err
	}
	if facility.ID == 0 {
		if err := db.WithContext(ctx).Where("facility_name = ?", facility.FacilityName).First(&facility).Error; err != nil {
			return err
		}
	}

	location, err := models.GetOrCreateLocation(ctx, db, facility.ID, nil)
	if err != nil {
		return err
	}
	if _, err := models.GetOrCreateChargeCode(ctx, db, location.ID, models.ProgramTypeStandard); err != nil {
		return err
	}
	if _, err := models.GetOrCreateChargeCode(ctx, db, location.ID, models.ProgramTypePortableReader); err != nil {
		return err
	}

	devices := []models.Device{
		{DeviceTerminalId: "DEMO-WC-1", DeviceType: models.DeviceTypeFixedTerminal, SupportsCard: boolPtr(true)},
		{DeviceTerminalId: "DEMO-METER", DeviceType: models.DeviceTypeMultiSpaceMeter, SupportsCash: boolPtr(true), SupportsCard: boolPtr(true)},
		{DeviceTerminalId: "DEMO-PORT", DeviceType: models.DeviceTypePortableReader, SupportsCard: boolPtr(true)},
	}
	assignStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range devices {
		if err := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&devices[i]).Error; err != nil {
			return err
		}
		if devices[i].ID == 0 {
			continue // already seeded, assignment exists
		}
		err := models.CreateDeviceAssignment(ctx, db, &models.DeviceAssignment{
			DeviceId:   devices[i].ID,
			LocationId: location.ID,
			AssignDate: assignStart,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
